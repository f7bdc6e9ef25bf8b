package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// DeviceStatusProcessor emits a battery/basal snapshot from the daily
// status event. Only the latest qualifying event in the window is
// written; the snapshot is a point-in-time reading, so intermediate
// ones carry no extra information.
type DeviceStatusProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewDeviceStatusProcessor(store Store, logger *zap.Logger) *DeviceStatusProcessor {
	return &DeviceStatusProcessor{store: store, logger: logger}
}

func (p *DeviceStatusProcessor) Class() pumplog.Class { return pumplog.ClassDeviceStatus }

func (p *DeviceStatusProcessor) Enabled(f config.Features) bool { return f.DeviceStatus }

func (p *DeviceStatusProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeDeviceStatus, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last device status: %w", err)
	}

	sorted := sortByTime(events)
	ev := sorted[len(sorted)-1]
	if atOrBefore(ev.Timestamp(), cursor) {
		return res, nil
	}

	t := newTreatment(models.EventTypeDeviceStatus, ev.Timestamp(), ev.Record.SeqNum)
	t.Notes = fmt.Sprintf("Battery %.1f%% (%.2f V), daily basal %.2f u, IOB %.2f u",
		ev.Num("batteryCharge")*100,
		ev.Num("lipoMv"),
		ev.Raw("dailyTotalBasal"),
		ev.Raw("iob"),
	)
	res.Treatments = append(res.Treatments, t)
	return res, nil
}
