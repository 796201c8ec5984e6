package aiusage

import (
	"errors"
	"time"
)

// ErrInsufficientTokens is returned when a user has no generations left for the current month.
var ErrInsufficientTokens = errors.New("insufficient tokens")

// DefaultTokens is the number of AI generations granted per user per month.
const DefaultTokens = 100

// Usage is one provider call as seen by the ledger. Token counts are estimates.
type Usage struct {
	UID              string
	Provider         string
	Model            string
	Task             string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
	Failed           bool
}

// TaskTotal aggregates a user's calls for one task.
type TaskTotal struct {
	Task             string `json:"task"`
	Calls            int    `json:"calls"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
}

// Report is the month-to-date view returned by GET /api/user/usage.
type Report struct {
	Month           string      `json:"month"`
	TokensRemaining int         `json:"tokensRemaining"`
	Tasks           []TaskTotal `json:"tasks"`
}
