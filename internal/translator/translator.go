// Package translator converts decoded pump events into target-store
// records, one processor per semantic event class. Every processor
// follows the same shape: sort by absolute timestamp, query the
// last-uploaded cursor, skip at-or-before-cursor events (with the
// per-class correction exceptions), transform the remainder.
package translator

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
)

// Window bounds one orchestration pass.
type Window struct {
	Start time.Time
	End   time.Time
}

// Store is the target time-series store as the processors see it.
type Store interface {
	LastTreatment(ctx context.Context, eventType string, win Window) (*models.Treatment, error)
	UpsertTreatment(ctx context.Context, t *models.Treatment) error
	DeleteTreatment(ctx context.Context, id string) error
	LastEntry(ctx context.Context) (*models.Entry, error)
	UploadEntries(ctx context.Context, entries []models.Entry) error
}

// ProfileStore is the target store's profile surface, used only by the
// profile updater.
type ProfileStore interface {
	CurrentProfile(ctx context.Context) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
}

// Result is the output of one processor over one window: records to
// delete first (correction reissues), then records to write.
type Result struct {
	Deletes    []string
	Treatments []models.Treatment
	Entries    []models.Entry
}

// Processor converts the sorted events of one class into upsert-ready
// records.
type Processor interface {
	Class() pumplog.Class
	Enabled(f config.Features) bool
	Process(ctx context.Context, events []pumplog.Event, win Window) (Result, error)
}

// Writer applies a Result against the store. In pretend mode it logs
// every would-be delete and write instead; the decision logic upstream
// is identical either way, which is what makes pretend output
// trustworthy.
type Writer struct {
	store   Store
	pretend bool
	logger  *zap.Logger
}

func NewWriter(store Store, pretend bool, logger *zap.Logger) *Writer {
	return &Writer{
		store:   store,
		pretend: pretend,
		logger:  logger,
	}
}

// Apply performs deletes first, then treatment upserts, then entry
// uploads. Returns the number of records written (deletes excluded).
func (w *Writer) Apply(ctx context.Context, res Result) (int, error) {
	for _, id := range res.Deletes {
		if w.pretend {
			w.logger.Info("Pretend: would delete treatment", zap.String("id", id))
			continue
		}
		if err := w.store.DeleteTreatment(ctx, id); err != nil {
			return 0, err
		}
		w.logger.Info("Deleted treatment for correction", zap.String("id", id))
	}

	written := 0
	for i := range res.Treatments {
		t := &res.Treatments[i]
		if w.pretend {
			w.logger.Info("Pretend: would upsert treatment",
				zap.String("event_type", t.EventType),
				zap.Time("created_at", t.CreatedAt),
				zap.String("reason", t.Reason),
			)
			written++
			continue
		}
		if err := w.store.UpsertTreatment(ctx, t); err != nil {
			return written, err
		}
		written++
	}

	if len(res.Entries) > 0 {
		if w.pretend {
			w.logger.Info("Pretend: would upload entries", zap.Int("count", len(res.Entries)))
			written += len(res.Entries)
		} else {
			if err := w.store.UploadEntries(ctx, res.Entries); err != nil {
				return written, err
			}
			written += len(res.Entries)
		}
	}

	return written, nil
}

// sortByTime orders events chronologically. Decoded events may arrive
// out of order because firmware uploads are batched and backfilled;
// every processor depends on this sort. Sequence number breaks ties.
func sortByTime(events []pumplog.Event) []pumplog.Event {
	sorted := make([]pumplog.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp(), sorted[j].Timestamp()
		if ti.Equal(tj) {
			return sorted[i].Record.SeqNum < sorted[j].Record.SeqNum
		}
		return ti.Before(tj)
	})
	return sorted
}

// atOrBefore reports whether an event timestamp is covered by the
// cursor (nil cursor covers nothing).
func atOrBefore(ts time.Time, cursor *models.Treatment) bool {
	return cursor != nil && !ts.After(cursor.CreatedAt)
}

// newTreatment fills the fields every record shares. The sync
// identifier is generated per write; the pump event id carries the
// source sequence number as the durable cross-reference.
func newTreatment(eventType string, at time.Time, seqNum uint32) models.Treatment {
	return models.Treatment{
		EventType:   eventType,
		CreatedAt:   at,
		EnteredBy:   models.EnteredBy,
		PumpEventID: strconv.FormatUint(uint64(seqNum), 10),
		SyncID:      uuid.NewString(),
	}
}

// sortTreatments orders output records chronologically.
func sortTreatments(ts []models.Treatment) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

func minutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}

func ptr[T any](v T) *T {
	return &v
}
