package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// AlarmProcessor emits an announcement record per pump alarm or alert
// activation, with the decoded code name in the notes.
type AlarmProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewAlarmProcessor(store Store, logger *zap.Logger) *AlarmProcessor {
	return &AlarmProcessor{store: store, logger: logger}
}

func (p *AlarmProcessor) Class() pumplog.Class { return pumplog.ClassAlarm }

func (p *AlarmProcessor) Enabled(f config.Features) bool { return f.Alarm }

func (p *AlarmProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeAlarm, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last alarm: %w", err)
	}

	for _, ev := range sortByTime(events) {
		if atOrBefore(ev.Timestamp(), cursor) {
			continue
		}

		t := newTreatment(models.EventTypeAlarm, ev.Timestamp(), ev.Record.SeqNum)
		switch ev.Record.EventID {
		case pumplog.EventAlarmActivated:
			t.Notes = fmt.Sprintf("Pump Alarm: %s", ev.Str("alarmID"))
		case pumplog.EventAlertActivated:
			t.Notes = fmt.Sprintf("Pump Alert: %s", ev.Str("alertID"))
		default:
			continue
		}
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}
