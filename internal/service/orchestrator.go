package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

// RawFetcher fetches the pump event blob for a device and window.
type RawFetcher interface {
	FetchRawEvents(ctx context.Context, deviceID string, start, end time.Time, eventIDs []uint16) ([]byte, error)
}

// AlarmNotifier publishes alarm records to an out-of-band channel.
type AlarmNotifier interface {
	PublishAlarm(t *models.Treatment) error
}

// CycleJournal records completed cycles for diagnostics.
type CycleJournal interface {
	InsertCycle(c *models.SyncCycle) (int64, error)
}

// Orchestrator runs one full pass over a time window: fetch the raw
// blob, decode and classify, run every enabled per-class processor,
// then the cross-cutting profile updater. A pass is not resumable
// mid-way; a partial failure is safe to retry next cycle because the
// per-record cursor checks make re-processing idempotent.
type Orchestrator struct {
	deviceID   string
	source     RawFetcher
	processors []translator.Processor
	writer     *translator.Writer
	profile    *translator.ProfileUpdater
	journal    CycleJournal
	notifier   AlarmNotifier
	features   config.Features
	logger     *zap.Logger
}

func NewOrchestrator(
	deviceID string,
	source RawFetcher,
	processors []translator.Processor,
	writer *translator.Writer,
	profile *translator.ProfileUpdater,
	journal CycleJournal,
	notifier AlarmNotifier,
	features config.Features,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		deviceID:   deviceID,
		source:     source,
		processors: processors,
		writer:     writer,
		profile:    profile,
		journal:    journal,
		notifier:   notifier,
		features:   features,
		logger:     logger,
	}
}

// ProcessWindow fetches, decodes, classifies and translates one time
// window, returning the pass summary. No decode state survives a
// failed fetch; the next cycle starts clean.
func (o *Orchestrator) ProcessWindow(ctx context.Context, start, end time.Time) (*models.SyncSummary, error) {
	began := time.Now()
	win := translator.Window{Start: start, End: end}
	summary := &models.SyncSummary{PerClass: make(map[string]int)}

	var passErr error
	defer func() {
		o.recordCycle(win, summary, began, passErr)
	}()

	blob, err := o.source.FetchRawEvents(ctx, o.deviceID, start, end, nil)
	if err != nil {
		passErr = fmt.Errorf("failed to fetch raw events: %w", err)
		return summary, passErr
	}

	records, err := pumplog.Split(blob)
	if err != nil {
		passErr = err
		return summary, passErr
	}

	events := pumplog.DecodeAll(records)
	summary.Decoded = len(events)

	grouped := make(map[pumplog.Class][]pumplog.Event)
	for _, ev := range events {
		if ev.Record.SeqNum > summary.MaxSeqNum {
			summary.MaxSeqNum = ev.Record.SeqNum
		}
		ts := ev.Timestamp()
		if summary.MinEventTime.IsZero() || ts.Before(summary.MinEventTime) {
			summary.MinEventTime = ts
		}
		if ts.After(summary.MaxEventTime) {
			summary.MaxEventTime = ts
		}

		class, ok := pumplog.Classify(ev.Record.EventID)
		if !ok {
			summary.Unclassified++
			continue
		}
		grouped[class] = append(grouped[class], ev)
	}

	for _, p := range o.processors {
		if !p.Enabled(o.features) {
			continue
		}
		res, err := p.Process(ctx, grouped[p.Class()], win)
		if err != nil {
			passErr = fmt.Errorf("%s processor failed: %w", p.Class(), err)
			return summary, passErr
		}
		written, err := o.writer.Apply(ctx, res)
		summary.Written += written
		summary.PerClass[p.Class().String()] = written
		if err != nil {
			passErr = fmt.Errorf("failed to write %s records: %w", p.Class(), err)
			return summary, passErr
		}
		if p.Class() == pumplog.ClassAlarm {
			o.publishAlarms(res.Treatments)
		}
	}

	if o.profile != nil && o.features.Profile {
		written, err := o.profile.Update(ctx)
		if err != nil {
			// profile sync is best-effort; event translation already
			// succeeded for this pass
			o.logger.Warn("Profile sync failed", zap.Error(err))
		} else {
			summary.Written += written
		}
	}

	o.logger.Info("Processed window",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("decoded", summary.Decoded),
		zap.Int("unclassified", summary.Unclassified),
		zap.Int("written", summary.Written),
		zap.Uint32("max_seq_num", summary.MaxSeqNum),
	)

	return summary, nil
}

func (o *Orchestrator) publishAlarms(alarms []models.Treatment) {
	if o.notifier == nil {
		return
	}
	for i := range alarms {
		if err := o.notifier.PublishAlarm(&alarms[i]); err != nil {
			o.logger.Warn("Failed to publish alarm notification", zap.Error(err))
		}
	}
}

func (o *Orchestrator) recordCycle(win translator.Window, summary *models.SyncSummary, began time.Time, passErr error) {
	if o.journal == nil {
		return
	}
	cycle := &models.SyncCycle{
		WindowStart:    win.Start,
		WindowEnd:      win.End,
		EventsDecoded:  summary.Decoded,
		Unclassified:   summary.Unclassified,
		RecordsWritten: summary.Written,
		MaxSeqNum:      summary.MaxSeqNum,
		Elapsed:        time.Since(began),
	}
	if passErr != nil {
		cycle.Error = passErr.Error()
	}
	if _, err := o.journal.InsertCycle(cycle); err != nil {
		o.logger.Warn("Failed to record sync cycle", zap.Error(err))
	}
}
