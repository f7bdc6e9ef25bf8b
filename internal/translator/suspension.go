package translator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// SuspensionProcessor emits a point record per pumping-suspended event,
// with the suspension reason decoded from the event's reason bitmask.
type SuspensionProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewSuspensionProcessor(store Store, logger *zap.Logger) *SuspensionProcessor {
	return &SuspensionProcessor{store: store, logger: logger}
}

func (p *SuspensionProcessor) Class() pumplog.Class { return pumplog.ClassBasalSuspension }

func (p *SuspensionProcessor) Enabled(f config.Features) bool { return f.Basal }

func (p *SuspensionProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeBasalSuspension, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last suspension: %w", err)
	}

	for _, ev := range sortByTime(events) {
		if atOrBefore(ev.Timestamp(), cursor) {
			continue
		}
		t := newTreatment(models.EventTypeBasalSuspension, ev.Timestamp(), ev.Record.SeqNum)
		if flags := ev.Flags("reason"); len(flags) > 0 {
			t.Reason = strings.Join(flags, ", ")
		}
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}

// ResumeProcessor emits a point record per pumping-resumed event.
type ResumeProcessor struct {
	store  Store
	logger *zap.Logger
}

func NewResumeProcessor(store Store, logger *zap.Logger) *ResumeProcessor {
	return &ResumeProcessor{store: store, logger: logger}
}

func (p *ResumeProcessor) Class() pumplog.Class { return pumplog.ClassBasalResume }

func (p *ResumeProcessor) Enabled(f config.Features) bool { return f.Basal }

func (p *ResumeProcessor) Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error) {
	var res Result
	if len(events) == 0 {
		return res, nil
	}

	cursor, err := p.store.LastTreatment(ctx, models.EventTypeBasalResume, win)
	if err != nil {
		return res, fmt.Errorf("failed to query last resume: %w", err)
	}

	for _, ev := range sortByTime(events) {
		if atOrBefore(ev.Timestamp(), cursor) {
			continue
		}
		t := newTreatment(models.EventTypeBasalResume, ev.Timestamp(), ev.Record.SeqNum)
		res.Treatments = append(res.Treatments, t)
	}
	return res, nil
}
