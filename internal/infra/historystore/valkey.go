package historystore

import (
	"context"
	"encoding/json"

	"github.com/valkey-io/valkey-go"

	"github.com/respiguard/backend/internal/domain/chat"
)

// ValkeyHistory keeps the last N turns per session in a Valkey list.
// RPUSH followed by LTRIM keeps eviction server-side and atomic.
type ValkeyHistory struct {
	client valkey.Client
	prefix string
	turns  int
}

// NewValkeyHistory constructs a history backed by Valkey.
func NewValkeyHistory(client valkey.Client, prefix string, turns int) *ValkeyHistory {
	if prefix == "" {
		prefix = "chat"
	}
	if turns <= 0 {
		turns = chat.DefaultHistoryTurns
	}
	return &ValkeyHistory{client: client, prefix: prefix, turns: turns}
}

// Recent returns the retained turns in chronological order.
func (h *ValkeyHistory) Recent(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	cmd := h.client.B().Lrange().Key(h.key(sessionID)).Start(int64(-h.turns)).Stop(-1).Build()
	payloads, err := h.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	turns := make([]chat.Turn, 0, len(payloads))
	for _, payload := range payloads {
		var turn chat.Turn
		if err := json.Unmarshal([]byte(payload), &turn); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append pushes a turn and trims the list to the most recent N.
func (h *ValkeyHistory) Append(ctx context.Context, sessionID string, turn chat.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	key := h.key(sessionID)
	if err := h.client.Do(ctx, h.client.B().Rpush().Key(key).Element(string(payload)).Build()).Error(); err != nil {
		return err
	}
	return h.client.Do(ctx, h.client.B().Ltrim().Key(key).Start(int64(-h.turns)).Stop(-1).Build()).Error()
}

func (h *ValkeyHistory) key(sessionID string) string {
	return h.prefix + ":history:" + sessionID
}

var _ chat.History = (*ValkeyHistory)(nil)
