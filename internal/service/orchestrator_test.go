package service_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
	"github.com/jwoglom/tconnectsync-sub000/internal/service"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

// memStore is an in-memory translator.Store that keeps state across
// passes, which is what the idempotence tests exercise.
type memStore struct {
	treatments []models.Treatment
	entries    []models.Entry
	deleted    []string
	nextID     int
}

func (s *memStore) LastTreatment(_ context.Context, eventType string, win translator.Window) (*models.Treatment, error) {
	var last *models.Treatment
	for i := range s.treatments {
		t := &s.treatments[i]
		if t.EventType != eventType || t.EnteredBy != models.EnteredBy || t.CreatedAt.After(win.End) {
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

func (s *memStore) UpsertTreatment(_ context.Context, t *models.Treatment) error {
	s.nextID++
	t.ID = fmt.Sprintf("t%d", s.nextID)
	s.treatments = append(s.treatments, *t)
	return nil
}

func (s *memStore) DeleteTreatment(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	for i := range s.treatments {
		if s.treatments[i].ID == id {
			s.treatments = append(s.treatments[:i], s.treatments[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memStore) LastEntry(_ context.Context) (*models.Entry, error) {
	var last *models.Entry
	for i := range s.entries {
		if last == nil || s.entries[i].Date > last.Date {
			last = &s.entries[i]
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (s *memStore) UploadEntries(_ context.Context, entries []models.Entry) error {
	s.entries = append(s.entries, entries...)
	return nil
}

type blobFetcher struct {
	blob    []byte
	fetches int
}

func (f *blobFetcher) FetchRawEvents(context.Context, string, time.Time, time.Time, []uint16) ([]byte, error) {
	f.fetches++
	return f.blob, nil
}

type countingNotifier struct {
	alarms []models.Treatment
}

func (n *countingNotifier) PublishAlarm(t *models.Treatment) error {
	n.alarms = append(n.alarms, *t)
	return nil
}

type memJournal struct {
	cycles []models.SyncCycle
}

func (j *memJournal) InsertCycle(c *models.SyncCycle) (int64, error) {
	j.cycles = append(j.cycles, *c)
	return int64(len(j.cycles)), nil
}

func encodeRecord(eventID uint16, at time.Time, seq uint32, payload []byte) []byte {
	buf := make([]byte, pumplog.RecordSize)
	binary.BigEndian.PutUint16(buf[0:2], eventID)
	binary.BigEndian.PutUint32(buf[2:6], uint32(at.Unix()-pumplog.PumpEpoch))
	binary.BigEndian.PutUint32(buf[6:10], seq)
	copy(buf[10:], payload)
	return buf
}

func f32Payload(values map[int]float32) []byte {
	p := make([]byte, pumplog.PayloadSize)
	for off, v := range values {
		binary.BigEndian.PutUint32(p[off:off+4], math.Float32bits(v))
	}
	return p
}

func TestOrchestrator_SecondPassOverSameWindowWritesNothing(t *testing.T) {
	base := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	winStart := base.Add(-time.Minute)
	winEnd := base.Add(29 * time.Minute)

	alarmPayload := make([]byte, pumplog.PayloadSize)
	binary.BigEndian.PutUint32(alarmPayload[0:4], 2)

	var blob []byte
	blob = append(blob, encodeRecord(pumplog.EventBasalRateChange, base, 100, f32Payload(map[int]float32{0: 0.8}))...)
	blob = append(blob, encodeRecord(pumplog.EventBasalRateChange, base.Add(17*time.Minute), 101, f32Payload(map[int]float32{0: 1.2}))...)
	blob = append(blob, encodeRecord(pumplog.EventPumpingSuspended, base.Add(20*time.Minute), 102, nil)...)
	blob = append(blob, encodeRecord(pumplog.EventAlarmActivated, base.Add(25*time.Minute), 103, alarmPayload)...)
	blob = append(blob, encodeRecord(pumplog.EventTimeChanged, base.Add(26*time.Minute), 104, nil)...)

	store := &memStore{}
	logger := zap.NewNop()
	processors := []translator.Processor{
		translator.NewBasalProcessor(store, false, logger),
		translator.NewSuspensionProcessor(store, logger),
		translator.NewAlarmProcessor(store, logger),
	}
	fetcher := &blobFetcher{blob: blob}
	notifier := &countingNotifier{}
	journal := &memJournal{}
	features := config.Features{Basal: true, Alarm: true}

	orch := service.NewOrchestrator("dev1", fetcher, processors,
		translator.NewWriter(store, false, logger), nil, journal, notifier, features, logger)

	summary, err := orch.ProcessWindow(context.Background(), winStart, winEnd)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Decoded)
	assert.Equal(t, 1, summary.Unclassified)
	assert.Equal(t, uint32(104), summary.MaxSeqNum)
	assert.Equal(t, 4, summary.Written) // 2 basal + 1 suspension + 1 alarm
	assert.Equal(t, 2, summary.PerClass["basal"])
	assert.Len(t, notifier.alarms, 1)

	// the same window again, store unchanged: every record is covered
	// by its cursor
	summary, err = orch.ProcessWindow(context.Background(), winStart, winEnd)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Decoded)
	assert.Equal(t, 0, summary.Written)
	assert.Empty(t, store.deleted)
	assert.Len(t, store.treatments, 4)
	assert.Len(t, notifier.alarms, 1)

	require.Len(t, journal.cycles, 2)
	assert.Equal(t, 4, journal.cycles[0].RecordsWritten)
	assert.Equal(t, 0, journal.cycles[1].RecordsWritten)
	assert.Empty(t, journal.cycles[1].Error)
}

func TestOrchestrator_DisabledProcessorsAreSkipped(t *testing.T) {
	base := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	blob := encodeRecord(pumplog.EventBasalRateChange, base, 100, f32Payload(map[int]float32{0: 0.8}))

	store := &memStore{}
	logger := zap.NewNop()
	processors := []translator.Processor{
		translator.NewBasalProcessor(store, false, logger),
	}
	orch := service.NewOrchestrator("dev1", &blobFetcher{blob: blob}, processors,
		translator.NewWriter(store, false, logger), nil, nil, nil, config.Features{}, logger)

	summary, err := orch.ProcessWindow(context.Background(), base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Decoded)
	assert.Equal(t, 0, summary.Written)
	assert.Empty(t, store.treatments)
}

func TestOrchestrator_TruncatedBlobFailsAndJournalsError(t *testing.T) {
	store := &memStore{}
	logger := zap.NewNop()
	journal := &memJournal{}
	fetcher := &blobFetcher{blob: make([]byte, pumplog.RecordSize+3)}

	orch := service.NewOrchestrator("dev1", fetcher, nil,
		translator.NewWriter(store, false, logger), nil, journal, nil, config.Features{}, logger)

	_, err := orch.ProcessWindow(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)

	var decodeErr *pumplog.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	require.Len(t, journal.cycles, 1)
	assert.NotEmpty(t, journal.cycles[0].Error)
}
