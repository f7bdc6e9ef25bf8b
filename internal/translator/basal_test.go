package translator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
	"github.com/jwoglom/tconnectsync-sub000/internal/pumplog"
	"github.com/jwoglom/tconnectsync-sub000/internal/translator"
)

func basalEvent(at time.Time, seq uint32, rate float32, changeType byte) pumplog.Event {
	p := payloadF32(map[int]float32{0: rate})
	p[13] = changeType
	return makeEvent(pumplog.EventBasalRateChange, at, seq, p)
}

func TestBasalProcessor_IntervalsAndWindowClamp(t *testing.T) {
	store := &fakeStore{}
	proc := translator.NewBasalProcessor(store, false, zap.NewNop())

	t1 := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 10, 13, 17, 40, 0, time.UTC)
	win := translator.Window{
		Start: t1.Add(-time.Minute),
		End:   time.Date(2024, 3, 10, 13, 29, 0, 0, time.UTC),
	}

	res, err := proc.Process(context.Background(), []pumplog.Event{
		basalEvent(t2, 101, 1.2, 0),
		basalEvent(t1, 100, 0.8, 0),
	}, win)
	require.NoError(t, err)
	require.Len(t, res.Treatments, 2)

	first := res.Treatments[0]
	assert.Equal(t, models.EventTypeTempBasal, first.EventType)
	assert.Equal(t, models.EnteredBy, first.EnteredBy)
	assert.True(t, first.CreatedAt.Equal(t1))
	require.NotNil(t, first.Rate)
	assert.InDelta(t, 0.8, *first.Rate, 1e-6)
	require.NotNil(t, first.Duration)
	assert.InDelta(t, 17.0+40.0/60.0, *first.Duration, 0.01)

	// the last segment ends at the window boundary, never at some
	// unrelated later event
	second := res.Treatments[1]
	require.NotNil(t, second.Duration)
	assert.InDelta(t, 11.0+20.0/60.0, *second.Duration, 0.01)
	assert.Less(t, *second.Duration, 60.0)
}

func TestBasalProcessor_SkipsAtOrBeforeCursor(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 10, 13, 17, 40, 0, time.UTC)
	win := translator.Window{Start: t1.Add(-time.Minute), End: time.Date(2024, 3, 10, 13, 29, 0, 0, time.UTC)}

	store := &fakeStore{}
	store.seed(models.Treatment{
		EventType: models.EventTypeTempBasal,
		CreatedAt: t1,
		Duration:  fptr(17.0 + 40.0/60.0),
	})
	proc := translator.NewBasalProcessor(store, false, zap.NewNop())

	res, err := proc.Process(context.Background(), []pumplog.Event{
		basalEvent(t1, 100, 0.8, 0),
		basalEvent(t2, 101, 1.2, 0),
	}, win)
	require.NoError(t, err)

	// t1 is already uploaded with the same duration; only t2 is new
	assert.Empty(t, res.Deletes)
	require.Len(t, res.Treatments, 1)
	assert.True(t, res.Treatments[0].CreatedAt.Equal(t2))
}

func TestBasalProcessor_ReissuesExtendedSegment(t *testing.T) {
	t2 := time.Date(2024, 3, 10, 13, 17, 40, 0, time.UTC)
	t3 := time.Date(2024, 3, 10, 13, 40, 0, 0, time.UTC)
	win := translator.Window{Start: t2.Add(-time.Minute), End: time.Date(2024, 3, 10, 13, 50, 0, 0, time.UTC)}

	store := &fakeStore{}
	// the previous cycle clamped this segment to its own window end
	seededID := store.seed(models.Treatment{
		EventType: models.EventTypeTempBasal,
		CreatedAt: t2,
		Duration:  fptr(11.0 + 20.0/60.0),
	})
	proc := translator.NewBasalProcessor(store, false, zap.NewNop())

	res, err := proc.Process(context.Background(), []pumplog.Event{
		basalEvent(t2, 101, 1.2, 0),
		basalEvent(t3, 102, 0.9, 0),
	}, win)
	require.NoError(t, err)

	require.Equal(t, []string{seededID}, res.Deletes)
	require.Len(t, res.Treatments, 2)
	require.NotNil(t, res.Treatments[0].Duration)
	assert.InDelta(t, 22.0+20.0/60.0, *res.Treatments[0].Duration, 0.01)
	assert.True(t, res.Treatments[1].CreatedAt.Equal(t3))
}

func TestBasalProcessor_SkipZeroRate(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	t2 := t1.Add(10 * time.Minute)
	win := translator.Window{Start: t1.Add(-time.Minute), End: t1.Add(30 * time.Minute)}

	store := &fakeStore{}
	proc := translator.NewBasalProcessor(store, true, zap.NewNop())

	res, err := proc.Process(context.Background(), []pumplog.Event{
		basalEvent(t1, 100, 0, 4), // suspended, zero rate
		basalEvent(t2, 101, 1.0, 5),
	}, win)
	require.NoError(t, err)
	require.Len(t, res.Treatments, 1)
	assert.True(t, res.Treatments[0].CreatedAt.Equal(t2))
}

func TestSuspensionProcessor_ReasonFromFlags(t *testing.T) {
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	win := translator.Window{Start: at.Add(-time.Minute), End: at.Add(time.Minute)}

	payload := payloadF32(map[int]float32{0: 12.5})
	payload[4] = 0b00000011 // UserRequest | Alarm

	store := &fakeStore{}
	proc := translator.NewSuspensionProcessor(store, zap.NewNop())

	res, err := proc.Process(context.Background(), []pumplog.Event{
		makeEvent(pumplog.EventPumpingSuspended, at, 200, payload),
	}, win)
	require.NoError(t, err)
	require.Len(t, res.Treatments, 1)
	assert.Equal(t, models.EventTypeBasalSuspension, res.Treatments[0].EventType)
	assert.Equal(t, "UserRequest, Alarm", res.Treatments[0].Reason)
}

func TestResumeProcessor_SkipsCovered(t *testing.T) {
	at := time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC)
	win := translator.Window{Start: at.Add(-time.Hour), End: at.Add(time.Minute)}

	store := &fakeStore{}
	store.seed(models.Treatment{EventType: models.EventTypeBasalResume, CreatedAt: at})
	proc := translator.NewResumeProcessor(store, zap.NewNop())

	res, err := proc.Process(context.Background(), []pumplog.Event{
		makeEvent(pumplog.EventPumpingResumed, at, 201, nil),
	}, win)
	require.NoError(t, err)
	assert.Empty(t, res.Treatments)
}
