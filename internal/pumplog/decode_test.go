package pumplog

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(eventID uint16, payload []byte) RawRecord {
	rec := RawRecord{EventID: eventID, TimestampRaw: 500000000, SeqNum: 1}
	copy(rec.Payload[:], payload)
	return rec
}

func TestDecode_UnknownEventID(t *testing.T) {
	ev := Decode(testRecord(0x0FFE, nil))

	assert.False(t, ev.Known)
	assert.Empty(t, ev.Name)
	assert.Empty(t, ev.Values)
	// header accessors still work on raw-only events
	assert.Equal(t, int64(PumpEpoch+500000000), ev.Timestamp().Unix())
}

func TestDecode_EnumFallbackIsStable(t *testing.T) {
	payload := make([]byte, PayloadSize)
	payload[0] = 99 // no such cgm alert code

	ev := Decode(testRecord(EventCgmAlertActivated, payload))
	require.True(t, ev.Known)
	assert.Equal(t, "UnknownCgmAlert99", ev.Str("cgmAlertID"))
	assert.Equal(t, float64(99), ev.Values["cgmAlertID"].Raw)

	// decoding the same record again yields the identical name
	again := Decode(testRecord(EventCgmAlertActivated, payload))
	assert.Equal(t, ev.Str("cgmAlertID"), again.Str("cgmAlertID"))
}

func TestDecode_Bitmask(t *testing.T) {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint32(payload[0:4], math.Float32bits(1.5))
	payload[4] = 0b00000101 // UserRequest | Malfunction

	ev := Decode(testRecord(EventPumpingSuspended, payload))
	require.True(t, ev.Known)
	assert.Equal(t, []string{"UserRequest", "Malfunction"}, ev.Flags("reason"))
	assert.InDelta(t, 1.5, ev.Raw("insulinAmount"), 1e-9)
}

func TestDecode_BitmaskEmptyAndUnknownBits(t *testing.T) {
	payload := make([]byte, PayloadSize)

	ev := Decode(testRecord(EventPumpingSuspended, payload))
	assert.Empty(t, ev.Flags("reason"))

	// the bolus options table only names bits 0-3
	payload[2] = 0b00100001 // Override plus an out-of-table bit
	ev = Decode(testRecord(EventBolusRequestedMsg2, payload))
	assert.Equal(t, []string{"Override", "UnknownBit5"}, ev.Flags("options"))
}

func TestDecode_Ratio(t *testing.T) {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint16(payload[0:2], 42)
	binary.BigEndian.PutUint32(payload[4:8], 15000)

	ev := Decode(testRecord(EventBolusRequestedMsg2, payload))
	require.True(t, ev.Known)
	assert.Equal(t, float64(15000), ev.Values["carbRatioRaw"].Raw)
	assert.InDelta(t, 15.0, ev.Num("carbRatioRaw"), 1e-9)
	assert.Equal(t, "g/u", ev.Values["carbRatioRaw"].Unit)
}

func TestDecode_BatteryPercent(t *testing.T) {
	tests := []struct {
		name     string
		msb, lsb byte
		expected float64
	}{
		{"full", 17, 0, float64(256*(17-14)) / (3 * 256)},
		{"mid", 16, 128, float64(256*(16-14)+128) / (3 * 256)},
		{"empty", 14, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, PayloadSize)
			payload[8] = tt.msb
			payload[9] = tt.lsb
			binary.BigEndian.PutUint16(payload[10:12], 3812)

			ev := Decode(testRecord(EventDailyBasal, payload))
			require.True(t, ev.Known)
			assert.InDelta(t, tt.expected, ev.Num("batteryCharge"), 1e-9)
			assert.Equal(t, float64(tt.msb), ev.Raw("batteryMSB"))
			assert.InDelta(t, 3.812, ev.Num("lipoMv"), 1e-9)
		})
	}
}

func TestDecode_DictionaryFallback(t *testing.T) {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint32(payload[0:4], 2)

	ev := Decode(testRecord(EventAlarmActivated, payload))
	assert.Equal(t, "OcclusionAlarm", ev.Str("alarmID"))

	binary.BigEndian.PutUint32(payload[0:4], 999)
	ev = Decode(testRecord(EventAlarmActivated, payload))
	assert.Equal(t, "UnknownAlarm999", ev.Str("alarmID"))
	assert.Equal(t, float64(999), ev.Raw("alarmID"))
}

func TestDecode_Float32Field(t *testing.T) {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint32(payload[0:4], math.Float32bits(0.785))
	payload[13] = 2 // TempRateStart

	ev := Decode(testRecord(EventBasalRateChange, payload))
	require.True(t, ev.Known)
	assert.Equal(t, "BasalRateChange", ev.Name)
	assert.InDelta(t, 0.785, ev.Raw("commandedRate"), 1e-6)
	assert.Equal(t, "TempRateStart", ev.Str("changeType"))
}

func TestDecode_NumFallsBackToRaw(t *testing.T) {
	payload := make([]byte, PayloadSize)
	binary.BigEndian.PutUint16(payload[0:2], 142)

	ev := Decode(testRecord(EventBgReadingTaken, payload))
	// bg has no numeric derivation; Num returns the raw value
	assert.Equal(t, float64(142), ev.Num("bg"))
	assert.False(t, ev.Has("nope"))
}

func TestDecodeAll_PreservesOrder(t *testing.T) {
	records := []RawRecord{
		testRecord(EventPumpingResumed, nil),
		testRecord(0x0FFE, nil),
		testRecord(EventNewDay, nil),
	}

	events := DecodeAll(records)
	require.Len(t, events, 3)
	assert.Equal(t, "PumpingResumed", events[0].Name)
	assert.False(t, events[1].Known)
	assert.Equal(t, "NewDay", events[2].Name)
}
