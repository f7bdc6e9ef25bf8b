package translator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// cgmAlertReasons maps decoded alert names to the reason text written
// to the store.
var cgmAlertReasons = map[string]string{
	"FixedLowGlucose":       "Fixed Low Glucose",
	"HighGlucose":           "High Glucose",
	"LowGlucose":            "Low Glucose",
	"RiseRate":              "Glucose Rising",
	"FallRate":              "Glucose Falling",
	"RapidRise":             "Glucose Rising Rapidly",
	"RapidFall":             "Glucose Falling Rapidly",
	"SensorError":           "Sensor Error",
	"SensorExpiring":        "Sensor Expiring",
	"SensorExpired":         "Sensor Expired",
	"CalibrationRequired":   "Calibration Required",
	"TransmitterLowBattery": "Transmitter Battery Low",
}

// CgmAlertProcessor emits a record per CGM alert, tagged with the CGM
// vendor family. The "out of range" subtype fires constantly whenever
// the pump and transmitter lose line of sight and would flood the
// store, so it is dropped.
type CgmAlertProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewCgmAlertProcessor(store Store, logger *zap.Logger) *CgmAlertProcessor {
	return &CgmAlertProcessor{store: store, logger: logger}
}

func (p *CgmAlertProcessor) Class() pumplog.Class { return pumplog.ClassCgmAlert }

func (p *CgmAlertProcessor) Enabled(f config.Features) bool { return f.CgmAlert }

func (p *CgmAlertProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeCgmAlert, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last CGM alert: %w", err)
	}

	for _, ev := range sortByTime(events) {
		if atOrBefore(ev.Timestamp(), cursor) {
			continue
		}

		name := ev.Str("cgmAlertID")
		if name == "OutOfRange" {
			continue
		}

		reason, ok := cgmAlertReasons[name]
		if !ok {
			// unknown codes stay visible under their synthetic name
			reason = name
		}

		t := newTreatment(models.EventTypeCgmAlert, ev.Timestamp(), ev.Record.SeqNum)
		vendor := ev.Str("vendor")
		if vendor != "" && vendor != "Generic" {
			t.Reason = fmt.Sprintf("%s: %s", vendor, reason)
		} else {
			t.Reason = reason
		}
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}
