package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// HighWater is the per-device poll high-water mark cached between
// cycles. Losing it is harmless: the poller falls back to its initial
// lookback window and cursor checks keep re-processing idempotent.
type HighWater struct {
	LastActivity time.Time `json:"last_activity"`
	MaxSeqNum    uint32    `json:"max_seq_num"`
}

func highWaterKey(serial string) string {
	return fmt.Sprintf("tconnectsync:device:%s:highwater", serial)
}

// LoadHighWater reads the cached high-water mark for a device.
// ErrMiss when none is cached.
func LoadHighWater(ctx context.Context, kv KV, serial string) (*HighWater, error) {
	raw, err := kv.Get(ctx, highWaterKey(serial))
	if err != nil {
		return nil, err
	}
	var hw HighWater
	if err := json.Unmarshal([]byte(raw), &hw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal high-water mark: %w", err)
	}
	return &hw, nil
}

// SaveHighWater caches the high-water mark for a device.
func SaveHighWater(ctx context.Context, kv KV, serial string, hw *HighWater) error {
	raw, err := json.Marshal(hw)
	if err != nil {
		return fmt.Errorf("failed to marshal high-water mark: %w", err)
	}
	return kv.Set(ctx, highWaterKey(serial), string(raw), 0)
}
