package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// UserModeProcessor runs a small state machine per user mode (sleep,
// exercise) over start/stop action events. Sessions routinely span
// window boundaries:
//
//   - a session still open at window end is uploaded with a "Not Ended"
//     reason and a duration up to the window end;
//   - a stop with no matching start looks for that previously uploaded
//     "Not Ended" record, deletes it and reissues it merged with the
//     now-known duration;
//   - a stop with neither a start nor a prior "Not Ended" record is an
//     orphan: logged and dropped.
type UserModeProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewUserModeProcessor(store Store, logger *zap.Logger) *UserModeProcessor {
	return &UserModeProcessor{store: store, logger: logger}
}

func (p *UserModeProcessor) Class() pumplog.Class { return pumplog.ClassUserMode }

func (p *UserModeProcessor) Enabled(f config.Features) bool { return f.UserMode }

var userModeEventTypes = map[string]string{
	"Sleep":    models.EventTypeSleep,
	"Exercise": models.EventTypeExercise,
}

func (p *UserModeProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	sorted := sortByTime(events)

	for mode, eventType := range userModeEventTypes {
		if err := p.processMode(ctx, mode, eventType, sorted, win, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (p *UserModeProcessor) processMode(ctx context.Context, mode, eventType string, sorted []pumplog.Event, win Window, res *Result) error {
	cursor, err := p.store.LastTreatment(ctx, eventType, win)
	if err != nil {
		return fmt.Errorf("failed to query last %s record: %w", mode, err)
	}

	var startTS time.Time
	var startSeq uint32
	active := false

	for _, ev := range sorted {
		action := ev.Str("action")
		// StopAll ends every active mode, so it participates in each
		// mode's state machine
		if ev.Str("mode") != mode && action != "StopAll" {
			continue
		}

		ts := ev.Timestamp()
		if atOrBefore(ts, cursor) {
			continue
		}

		switch action {
		case "Start":
			if !active {
				startTS = ts
				startSeq = ev.Record.SeqNum
				active = true
			}
		case "Stop", "StopAll":
			if active {
				t := newTreatment(eventType, startTS, startSeq)
				t.Duration = ptr(minutesBetween(startTS, ts))
				t.Reason = mode
				res.Treatments = append(res.Treatments, t)
				active = false
				continue
			}
			if cursor != nil && cursor.IsNotEnded() {
				// the start lives in a previous window; replace its
				// provisional record with the final duration
				if cursor.ID != "" {
					res.Deletes = append(res.Deletes, cursor.ID)
				}
				t := newTreatment(eventType, cursor.CreatedAt, ev.Record.SeqNum)
				t.Duration = ptr(minutesBetween(cursor.CreatedAt, ts))
				t.Reason = strings.TrimSuffix(cursor.Reason, models.NotEndedSuffix)
				res.Treatments = append(res.Treatments, t)
				cursor = nil
				continue
			}
			p.logger.Warn("Dropping stop event with no matching start",
				zap.String("mode", mode),
				zap.Time("timestamp", ts),
				zap.Uint32("seq_num", ev.Record.SeqNum),
			)
		}
	}

	if active {
		// still running at window end; the next cycle finishes it
		t := newTreatment(eventType, startTS, startSeq)
		t.Duration = ptr(minutesBetween(startTS, win.End))
		t.Reason = mode + models.NotEndedSuffix
		res.Treatments = append(res.Treatments, t)
	}
	return nil
}
