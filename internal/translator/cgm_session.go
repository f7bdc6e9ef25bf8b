package translator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// CgmSessionProcessor handles sensor start/join/stop events. The three
// event types interleave in one physical session lifecycle, so they
// must not be deduplicated as independent streams: the skip cutoff is
// the most recent of the three last-uploaded cursors.
type CgmSessionProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewCgmSessionProcessor(store Store, logger *zap.Logger) *CgmSessionProcessor {
	return &CgmSessionProcessor{store: store, logger: logger}
}

func (p *CgmSessionProcessor) Class() pumplog.Class { return pumplog.ClassCgmSession }

func (p *CgmSessionProcessor) Enabled(f config.Features) bool { return f.CgmSession }

func (p *CgmSessionProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	var cutoff time.Time
	for _, eventType := range []string{
		models.EventTypeSensorStart,
		models.EventTypeSensorJoin,
		models.EventTypeSensorStop,
	} {
		cursor, err := p.store.LastTreatment(ctx, eventType, win)
		if err != nil {
			return res, fmt.Errorf("failed to query last %q: %w", eventType, err)
		}
		if cursor != nil && cursor.CreatedAt.After(cutoff) {
			cutoff = cursor.CreatedAt
		}
	}

	for _, ev := range sortByTime(events) {
		if !cutoff.IsZero() && !ev.Timestamp().After(cutoff) {
			continue
		}

		var t models.Treatment
		switch ev.Record.EventID {
		case pumplog.EventCgmSessionStarted:
			t = newTreatment(models.EventTypeSensorStart, ev.Timestamp(), ev.Record.SeqNum)
		case pumplog.EventCgmSessionJoined:
			t = newTreatment(models.EventTypeSensorJoin, ev.Timestamp(), ev.Record.SeqNum)
		case pumplog.EventCgmSessionStopped:
			t = newTreatment(models.EventTypeSensorStop, ev.Timestamp(), ev.Record.SeqNum)
			t.Reason = ev.Str("reason")
		default:
			continue
		}
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}
