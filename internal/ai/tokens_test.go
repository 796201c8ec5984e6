package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	text := strings.Repeat("a", 400)
	assert.Equal(t, 100, EstimateTokens(text, "openai"))
	assert.Equal(t, 115, EstimateTokens(text, "anthropic"))
	assert.Equal(t, 100, EstimateTokens(text, "gemini"))
	assert.Equal(t, 1, EstimateTokens("abc", "openai"))
	assert.Equal(t, 0, EstimateTokens("", "openai"))
}

func TestEstimateTokensCountsCharacters(t *testing.T) {
	assert.Equal(t, 100, EstimateTokens(strings.Repeat("ü", 400), "openai"))
	assert.Equal(t, 100, EstimateTokens(strings.Repeat("京都", 200), "openai"))
	assert.Equal(t, 2, EstimateTokens("Zürich", "anthropic"))
}

func TestEstimateTokensMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n < 200; n++ {
		got := EstimateTokens(strings.Repeat("x", n), "anthropic")
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestCalculateMaxTokensForRequest(t *testing.T) {
	prompt := strings.Repeat("a", 4000) // 1000 openai tokens
	assert.Equal(t, 8192-1000-100, CalculateMaxTokensForRequest(prompt, 8192, "openai"))

	// prompt larger than the model limit still yields the floor
	huge := strings.Repeat("a", 100000)
	assert.Equal(t, MinResponseTokens, CalculateMaxTokensForRequest(huge, 4096, "openai"))
	assert.Equal(t, MinResponseTokens, CalculateMaxTokensForRequest("", 0, "openai"))
}

func TestGetModelTokenLimit(t *testing.T) {
	assert.Equal(t, 8192, GetModelTokenLimit("gpt-4"))
	assert.Equal(t, 16384, GetModelTokenLimit("GPT-4o"))
	assert.Equal(t, DefaultModelTokenLimit, GetModelTokenLimit("llama-3-70b"))
	assert.Equal(t, DefaultModelTokenLimit, GetModelTokenLimit(""))
}

func TestSupportsTemperature(t *testing.T) {
	assert.False(t, SupportsTemperature("GPT-5-MINI"))
	assert.False(t, SupportsTemperature("gpt-5-mini-128k"))
	assert.False(t, SupportsTemperature("o3-mini"))
	assert.True(t, SupportsTemperature("gpt-4o"))
	assert.True(t, SupportsTemperature("gpt-4"))
	assert.True(t, SupportsTemperature("claude-3-5-sonnet-20241022"))
}

func TestSplitBudget(t *testing.T) {
	b := SplitBudget(3000, 4000, 4)
	assert.False(t, b.NeedsSplit)
	assert.Equal(t, 1, b.Chunks)
	assert.Equal(t, 3000, b.TokensPerChunk)

	b = SplitBudget(6000, 2000, 4)
	assert.True(t, b.NeedsSplit)
	assert.Equal(t, 3, b.Chunks)
	assert.Equal(t, 2000, b.TokensPerChunk)

	b = SplitBudget(20000, 1000, 4)
	assert.True(t, b.NeedsSplit)
	assert.Equal(t, 4, b.Chunks)
	assert.Equal(t, 1000, b.TokensPerChunk)

	b = SplitBudget(6000, 2000, 0)
	assert.Equal(t, 1, b.Chunks)
	assert.False(t, b.NeedsSplit)
}
