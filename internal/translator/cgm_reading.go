package translator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// CgmReadingProcessor uploads glucose entries. Readings are ordered and
// stamped by the embedded egvTimestamp field, not the record header
// timestamp: backfilled readings are written to the log long after
// capture, and only the embedded field places them correctly.
type CgmReadingProcessor struct {
	store  Store
	device string
	logger *zap.Logger
}

func NewCgmReadingProcessor(store Store, device string, logger *zap.Logger) *CgmReadingProcessor {
	return &CgmReadingProcessor{store: store, device: device, logger: logger}
}

func (p *CgmReadingProcessor) Class() pumplog.Class { return pumplog.ClassCgmReading }

func (p *CgmReadingProcessor) Enabled(f config.Features) bool { return f.CgmReading }

// captureTime resolves the reading's true capture time.
func captureTime(ev pumplog.Event) time.Time {
	return time.Unix(pumplog.PumpEpoch+ev.Int("egvTimestamp"), 0).UTC()
}

func (p *CgmReadingProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	last, err := p.store.LastEntry(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to query last entry: %w", err)
	}
	var cutoff time.Time
	if last != nil {
		cutoff = last.EntryTime()
	}

	sorted := make([]pumplog.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return captureTime(sorted[i]).Before(captureTime(sorted[j]))
	})

	for _, ev := range sorted {
		sgv := int(ev.Int("egv"))
		if sgv <= 0 {
			continue
		}
		at := captureTime(ev)
		if !cutoff.IsZero() && !at.After(cutoff) {
			continue
		}
		res.Entries = append(res.Entries, models.Entry{
			Type:       "sgv",
			SGV:        sgv,
			Date:       at.UnixMilli(),
			DateString: at.Format(time.RFC3339),
			Direction:  ev.Str("trend"),
			Device:     p.device,
		})
	}

	return res, nil
}
