// Package poller drives incremental synchronization: a lightweight
// metadata poll decides whether new pump data has appeared, and only
// then does a full orchestration pass run.
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/store"
)

// The two fatal conditions are deliberately distinct: ErrDeviceSilent
// implicates the pump (its activity timestamp stopped advancing),
// ErrPipelineSilent implicates this sync system (activity advances but
// nothing gets written).
var (
	ErrDeviceSilent   = errors.New("no new pump data within the configured threshold")
	ErrPipelineSilent = errors.New("no records written despite new pump data within the configured threshold")
)

// consecutive unchanged polls before switching to the fixed
// "unexpected no change" sleep
const noChangeThreshold = 3

// Orchestrator runs one pass over a time window.
type Orchestrator interface {
	ProcessWindow(ctx context.Context, start, end time.Time) (*models.SyncSummary, error)
}

// MetadataFetcher lists devices with their most-recent-event times.
type MetadataFetcher interface {
	FetchDeviceMetadata(ctx context.Context) ([]models.DeviceMetadata, error)
}

// Poller is the incremental poll driver.
type Poller struct {
	cfg    config.PollerConfig
	serial string // empty = first device
	source MetadataFetcher
	orch   Orchestrator
	kv     store.KV // optional; nil disables the high-water cache
	logger *zap.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg config.PollerConfig, serial string, source MetadataFetcher, orch Orchestrator, kv store.KV, logger *zap.Logger) *Poller {
	return &Poller{
		cfg:    cfg,
		serial: serial,
		source: source,
		orch:   orch,
		kv:     kv,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run polls until the context is cancelled or a fatal condition fires
// with ExitOnFatal set. One orchestration pass runs fully before the
// next poll; cancellation is only observed between cycles.
func (p *Poller) Run(ctx context.Context) error {
	var lastActivity time.Time
	var maxSeq uint32
	if p.kv != nil {
		if hw, err := store.LoadHighWater(ctx, p.kv, p.serial); err == nil {
			lastActivity = hw.LastActivity
			maxSeq = hw.MaxSeqNum
			p.logger.Info("Restored poll high-water mark",
				zap.Time("last_activity", lastActivity),
				zap.Uint32("max_seq_num", maxSeq),
			)
		} else if !errors.Is(err, store.ErrMiss) {
			p.logger.Warn("Failed to load high-water mark", zap.Error(err))
		}
	}

	lastChangeAt := p.now()
	lastWriteAt := p.now()
	noChangeCount := 0
	var latencies []time.Duration

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		devices, err := p.source.FetchDeviceMetadata(ctx)
		if err != nil {
			// upstream failure is "no data this cycle"
			p.logger.Warn("Failed to fetch device metadata", zap.Error(err))
			if err := p.sleep(ctx, p.cfg.MinSleep); err != nil {
				return err
			}
			continue
		}

		device, ok := p.selectDevice(devices)
		if !ok {
			p.logger.Warn("No matching device in metadata", zap.String("serial", p.serial))
			if err := p.sleep(ctx, p.cfg.MinSleep); err != nil {
				return err
			}
			continue
		}

		var sleepFor time.Duration
		activity := device.MaxDateWithEvents

		if activity.After(lastActivity) {
			observedAt := p.now()

			start := lastActivity.Add(-p.cfg.WindowOverlap)
			if lastActivity.IsZero() {
				start = observedAt.Add(-p.cfg.InitialLookback)
			}

			summary, err := p.orch.ProcessWindow(ctx, start, observedAt)
			if err != nil {
				p.logger.Error("Orchestration pass failed", zap.Error(err))
				if err := p.sleep(ctx, p.cfg.MinSleep); err != nil {
					return err
				}
				continue
			}

			latency := p.now().Sub(observedAt)
			latencies = appendLatency(latencies, latency)

			lastActivity = activity
			if summary.MaxSeqNum > maxSeq {
				maxSeq = summary.MaxSeqNum
			}
			p.saveHighWater(ctx, lastActivity, maxSeq)

			noChangeCount = 0
			lastChangeAt = p.now()

			if summary.Written > 0 {
				lastWriteAt = p.now()
			} else if elapsed := p.now().Sub(lastWriteAt); elapsed > p.cfg.NoWritesAfter {
				p.logger.Error("Pump data keeps appearing but nothing is being written",
					zap.Duration("elapsed", elapsed),
					zap.Duration("threshold", p.cfg.NoWritesAfter),
				)
				if p.cfg.ExitOnFatal {
					return ErrPipelineSilent
				}
				lastWriteAt = p.now()
			}

			sleepFor = p.clampedAverage(latencies)
		} else {
			noChangeCount++
			if elapsed := p.now().Sub(lastChangeAt); elapsed > p.cfg.NoDataAfter {
				p.logger.Error("Pump has uploaded no new data",
					zap.Duration("elapsed", elapsed),
					zap.Duration("threshold", p.cfg.NoDataAfter),
					zap.Time("last_activity", lastActivity),
				)
				if p.cfg.ExitOnFatal {
					return ErrDeviceSilent
				}
				lastChangeAt = p.now()
			}
			if noChangeCount >= noChangeThreshold {
				// the pump may simply be delayed; back off on the fixed
				// interval instead of the rolling average
				sleepFor = p.cfg.NoChangeSleep
			} else {
				sleepFor = p.clampedAverage(latencies)
			}
		}

		if err := p.sleep(ctx, sleepFor); err != nil {
			return err
		}
	}
}

func (p *Poller) selectDevice(devices []models.DeviceMetadata) (models.DeviceMetadata, bool) {
	if len(devices) == 0 {
		return models.DeviceMetadata{}, false
	}
	if p.serial == "" {
		return devices[0], true
	}
	for _, d := range devices {
		if d.SerialNumber == p.serial {
			return d, true
		}
	}
	return models.DeviceMetadata{}, false
}

func (p *Poller) saveHighWater(ctx context.Context, lastActivity time.Time, maxSeq uint32) {
	if p.kv == nil {
		return
	}
	hw := &store.HighWater{LastActivity: lastActivity, MaxSeqNum: maxSeq}
	if err := store.SaveHighWater(ctx, p.kv, p.serial, hw); err != nil {
		p.logger.Warn("Failed to save high-water mark", zap.Error(err))
	}
}

// appendLatency keeps the last 10 samples.
func appendLatency(latencies []time.Duration, latency time.Duration) []time.Duration {
	latencies = append(latencies, latency)
	if len(latencies) > 10 {
		latencies = latencies[len(latencies)-10:]
	}
	return latencies
}

// clampedAverage is the rolling mean of the observed latencies, clamped
// to [MinSleep, MaxSleep]. With no samples yet it is MinSleep.
func (p *Poller) clampedAverage(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return p.cfg.MinSleep
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	avg := total / time.Duration(len(latencies))
	if avg < p.cfg.MinSleep {
		return p.cfg.MinSleep
	}
	if avg > p.cfg.MaxSleep {
		return p.cfg.MaxSleep
	}
	return avg
}
