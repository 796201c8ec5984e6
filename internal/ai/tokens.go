package ai

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// MinResponseTokens is the floor for any computed response budget.
	MinResponseTokens = 500
	// SafetyBuffer is reserved on top of the prompt estimate.
	SafetyBuffer = 100
	// DefaultModelTokenLimit applies to models missing from modelTokenLimits.
	DefaultModelTokenLimit = 4096
)

// modelTokenLimits holds the per-request output ceiling of known models.
var modelTokenLimits = map[string]int{
	"gpt-4":                      8192,
	"gpt-4-turbo":                4096,
	"gpt-4o":                     16384,
	"gpt-4o-mini":                16384,
	"gpt-3.5-turbo":              4096,
	"gpt-5":                      128000,
	"gpt-5-mini":                 128000,
	"claude-3-5-sonnet-20241022": 8192,
	"claude-3-5-haiku-20241022":  8192,
	"claude-3-opus-20240229":     4096,
	"gemini-2.0-flash":           8192,
	"gemini-1.5-pro":             8192,
}

// noTemperatureModels reject a custom temperature. Matched as substrings.
var noTemperatureModels = []string{
	"gpt-5-mini",
	"gpt-5-nano",
	"o1-mini",
	"o1-preview",
	"o3-mini",
	"o4-mini",
}

// EstimateTokens approximates the token count of text (in characters, not bytes)
// for the given provider.
// Anthropic tokenizes slightly denser than OpenAI; everything else uses the OpenAI ratio.
func EstimateTokens(text, provider string) int {
	charsPerToken := 4.0
	if strings.EqualFold(provider, "anthropic") {
		charsPerToken = 3.5
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / charsPerToken))
}

// CalculateMaxTokensForRequest returns the response budget left after the prompt,
// never below MinResponseTokens.
func CalculateMaxTokensForRequest(prompt string, modelLimit int, provider string) int {
	available := modelLimit - EstimateTokens(prompt, provider) - SafetyBuffer
	if available < MinResponseTokens {
		return MinResponseTokens
	}
	return available
}

func GetModelTokenLimit(model string) int {
	if limit, ok := modelTokenLimits[strings.ToLower(strings.TrimSpace(model))]; ok {
		return limit
	}
	return DefaultModelTokenLimit
}

func SupportsTemperature(model string) bool {
	m := strings.ToLower(model)
	for _, deny := range noTemperatureModels {
		if strings.Contains(m, deny) {
			return false
		}
	}
	return true
}

// Budget describes how a response of a target size is spread over requests.
type Budget struct {
	NeedsSplit     bool
	Chunks         int
	TokensPerChunk int
}

// SplitBudget divides targetTokens across at most maxChunks requests once a single
// request's headroom is insufficient.
func SplitBudget(targetTokens, headroom, maxChunks int) Budget {
	if maxChunks < 1 {
		maxChunks = 1
	}
	if headroom <= 0 || headroom >= targetTokens {
		per := targetTokens
		if headroom > 0 && headroom < per {
			per = headroom
		}
		return Budget{Chunks: 1, TokensPerChunk: per}
	}
	chunks := int(math.Ceil(float64(targetTokens) / float64(headroom)))
	if chunks > maxChunks {
		chunks = maxChunks
	}
	per := int(math.Ceil(float64(targetTokens) / float64(chunks)))
	if per > headroom {
		per = headroom
	}
	return Budget{NeedsSplit: chunks > 1, Chunks: chunks, TokensPerChunk: per}
}
