package chat

import (
	"context"

	"github.com/respiguard/backend/pkg/metrics"
)

// DefaultHistoryTurns is the bounded-memory window: how many of the most
// recent turns a session retains.
const DefaultHistoryTurns = 4

// Turn is one completed user/assistant exchange.
type Turn struct {
	UserMessage      string `json:"userMessage"`
	AssistantMessage string `json:"assistantMessage"`
}

// History is the bounded per-session conversation store. Implementations
// enforce the capacity (FIFO eviction of the oldest turn) and serialize
// appends per session key so concurrent requests never lose updates.
type History interface {
	Recent(ctx context.Context, sessionID string) ([]Turn, error)
	Append(ctx context.Context, sessionID string, turn Turn) error
}

// Request captures the ask-doctor payload.
type Request struct {
	UserID     string `json:"uid"`
	SessionID  string `json:"session_id"`
	Query      string `json:"query"`
	AQIContext string `json:"aqi_context"`
}

// Response is serialized back to API consumers.
type Response struct {
	SessionID string             `json:"session_id"`
	Answer    string             `json:"response"`
	Usage     metrics.TokenUsage `json:"usage,omitempty"`
}

// Config wires runtime knobs for the chat domain.
type Config struct {
	Model       string
	Temperature float32
	RetrieveK   int
}
