package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// durations within this many minutes are the same segment
const durationEpsilon = 1.0 / 60.0

// BasalProcessor turns each basal rate-change event into an interval
// record. An interval runs until the next basal event, or until the
// window end for the last one. The window-end clamp is load-bearing: a
// basal segment must never borrow its end from an unrelated future
// event (e.g. a CGM reading hours later), which would inflate the
// duration by orders of magnitude.
type BasalProcessor struct {
	store    Store
	skipZero bool
	logger   *zap.Logger
}

func NewBasalProcessor(store Store, skipZero bool, logger *zap.Logger) *BasalProcessor {
	return &BasalProcessor{
		store:    store,
		skipZero: skipZero,
		logger:   logger,
	}
}

func (p *BasalProcessor) Class() pumplog.Class { return pumplog.ClassBasal }

func (p *BasalProcessor) Enabled(f config.Features) bool { return f.Basal }

func (p *BasalProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	sorted := sortByTime(events)

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeTempBasal, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last basal: %w", err)
	}

	for i, ev := range sorted {
		ts := ev.Timestamp()

		end := win.End
		if i+1 < len(sorted) {
			end = sorted[i+1].Timestamp()
		}
		duration := minutesBetween(ts, end)
		if duration < 0 {
			duration = 0
		}

		rate := ev.Raw("commandedRate")
		if p.skipZero && rate <= 0 {
			continue
		}

		if cursor != nil {
			if ts.Before(cursor.CreatedAt) {
				continue
			}
			if ts.Equal(cursor.CreatedAt) {
				// the same segment reappears when re-reading an
				// overlapping window; reissue only if a later event
				// extended it
				if cursor.Duration == nil || duration <= *cursor.Duration+durationEpsilon {
					continue
				}
				if cursor.ID != "" {
					res.Deletes = append(res.Deletes, cursor.ID)
				}
				p.logger.Info("Basal segment extended, reissuing",
					zap.Time("created_at", ts),
					zap.Float64("old_duration", *cursor.Duration),
					zap.Float64("new_duration", duration),
				)
			}
		}

		t := newTreatment(models.EventTypeTempBasal, ts, ev.Record.SeqNum)
		t.Duration = ptr(duration)
		t.Rate = ptr(rate)
		t.Reason = ev.Str("changeType")
		res.Treatments = append(res.Treatments, t)
	}

	return res, nil
}
