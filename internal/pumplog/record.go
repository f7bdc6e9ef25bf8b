// Package pumplog decodes the pump's binary event log: fixed-length
// 26-byte records split from an opaque byte stream, typed field
// decoding driven by a static per-event-type registry, and the static
// classification of event types into semantic classes.
package pumplog

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// RecordSize is the fixed length of one event-log record.
	RecordSize = 26
	// headerSize is source/eventID (2) + timestamp (4) + seqNum (4).
	headerSize = 10
	// PayloadSize is the per-event payload following the header.
	PayloadSize = RecordSize - headerSize

	// PumpEpoch is the pump's time zero: 2008-01-01T00:00:00Z.
	// Record timestamps are seconds since this epoch.
	PumpEpoch int64 = 1199145600
)

// RawRecord is one undecoded event-log record: the universal header
// plus the event-type-specific payload bytes.
type RawRecord struct {
	Source       uint8  // 4-bit origin subsystem tag
	EventID      uint16 // 12-bit event type id, selects the field layout
	TimestampRaw uint32 // seconds since PumpEpoch
	SeqNum       uint32 // monotonically increasing per-device record id
	Payload      [PayloadSize]byte
}

// Timestamp returns the absolute UTC time of the record.
func (r RawRecord) Timestamp() time.Time {
	return time.Unix(PumpEpoch+int64(r.TimestampRaw), 0).UTC()
}

// DecodeError reports a byte stream whose length is not a multiple of
// the record size. The stream is truncated or corrupt and decoding it
// anyway would misalign every following record, so the whole fetch is
// rejected.
type DecodeError struct {
	Length int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("truncated event stream: %d bytes is not a multiple of record size %d", e.Length, RecordSize)
}

// Split divides a raw byte stream into records and extracts the
// universal header of each. Unknown event ids are not an error at this
// layer; only a misaligned stream fails.
func Split(buf []byte) ([]RawRecord, error) {
	if len(buf)%RecordSize != 0 {
		return nil, &DecodeError{Length: len(buf)}
	}

	records := make([]RawRecord, 0, len(buf)/RecordSize)
	for off := 0; off < len(buf); off += RecordSize {
		chunk := buf[off : off+RecordSize]

		// first two bytes: high nibble = source, low 12 bits = event id
		head := binary.BigEndian.Uint16(chunk[0:2])

		rec := RawRecord{
			Source:       uint8(head >> 12),
			EventID:      head & 0x0FFF,
			TimestampRaw: binary.BigEndian.Uint32(chunk[2:6]),
			SeqNum:       binary.BigEndian.Uint32(chunk[6:10]),
		}
		copy(rec.Payload[:], chunk[headerSize:])
		records = append(records, rec)
	}

	return records, nil
}
