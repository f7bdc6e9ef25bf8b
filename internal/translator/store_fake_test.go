package translator_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

// fakeStore is an in-memory translator.Store. LastTreatment answers the
// same query shape the real store does: latest record of the event type
// tagged with our uploader name, created at or before the window end.
type fakeStore struct {
	treatments []models.Treatment
	entries    []models.Entry
	deleted    []string
	nextID     int
}

func (f *fakeStore) LastTreatment(_ context.Context, eventType string, win translator.Window) (*models.Treatment, error) {
	var last *models.Treatment
	for i := range f.treatments {
		t := &f.treatments[i]
		if t.EventType != eventType || t.EnteredBy != models.EnteredBy {
			continue
		}
		if t.CreatedAt.After(win.End) {
			continue
		}
		if last == nil || t.CreatedAt.After(last.CreatedAt) {
			last = t
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (f *fakeStore) UpsertTreatment(_ context.Context, t *models.Treatment) error {
	f.nextID++
	t.ID = fmt.Sprintf("t%d", f.nextID)
	f.treatments = append(f.treatments, *t)
	return nil
}

func (f *fakeStore) DeleteTreatment(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	for i := range f.treatments {
		if f.treatments[i].ID == id {
			f.treatments = append(f.treatments[:i], f.treatments[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) LastEntry(_ context.Context) (*models.Entry, error) {
	var last *models.Entry
	for i := range f.entries {
		e := &f.entries[i]
		if last == nil || e.Date > last.Date {
			last = e
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (f *fakeStore) UploadEntries(_ context.Context, entries []models.Entry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

// seed inserts an already-uploaded record with a stable id, bypassing
// the upsert bookkeeping.
func (f *fakeStore) seed(t models.Treatment) string {
	f.nextID++
	t.ID = fmt.Sprintf("t%d", f.nextID)
	if t.EnteredBy == "" {
		t.EnteredBy = models.EnteredBy
	}
	f.treatments = append(f.treatments, t)
	return t.ID
}

// makeEvent builds a decoded event with the given header fields.
func makeEvent(eventID uint16, at time.Time, seq uint32, payload []byte) pumplog.Event {
	rec := pumplog.RawRecord{
		EventID:      eventID,
		TimestampRaw: uint32(at.Unix() - pumplog.PumpEpoch),
		SeqNum:       seq,
	}
	copy(rec.Payload[:], payload)
	return pumplog.Decode(rec)
}

func payloadF32(values map[int]float32) []byte {
	p := make([]byte, pumplog.PayloadSize)
	for off, v := range values {
		binary.BigEndian.PutUint32(p[off:off+4], math.Float32bits(v))
	}
	return p
}

func fptr(v float64) *float64 { return &v }
