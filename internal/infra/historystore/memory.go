// Package historystore provides bounded per-session conversation storage.
package historystore

import (
	"context"
	"sync"

	"github.com/respiguard/backend/internal/domain/chat"
)

// MemoryHistory keeps the last N turns per session in-memory.
type MemoryHistory struct {
	turns int

	mu       sync.Mutex
	sessions map[string][]chat.Turn
}

// NewMemoryHistory constructs an in-memory history bounded to turns.
func NewMemoryHistory(turns int) *MemoryHistory {
	if turns <= 0 {
		turns = chat.DefaultHistoryTurns
	}
	return &MemoryHistory{
		turns:    turns,
		sessions: make(map[string][]chat.Turn),
	}
}

// Recent returns the retained turns in chronological order.
func (h *MemoryHistory) Recent(_ context.Context, sessionID string) ([]chat.Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := h.sessions[sessionID]
	out := make([]chat.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// Append adds a turn and evicts the oldest once capacity is exceeded.
func (h *MemoryHistory) Append(_ context.Context, sessionID string, turn chat.Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	stored := append(h.sessions[sessionID], turn)
	if len(stored) > h.turns {
		stored = stored[len(stored)-h.turns:]
	}
	h.sessions[sessionID] = append([]chat.Turn(nil), stored...)
	return nil
}

var _ chat.History = (*MemoryHistory)(nil)
