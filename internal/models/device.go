package models

import "time"

// DeviceMetadata is the lightweight per-device summary returned by the
// source cloud. MaxDateWithEvents is the "has new data appeared" signal
// the poll driver watches; it advances whenever the pump uploads.
type DeviceMetadata struct {
	DeviceID          string    `json:"deviceId"`
	SerialNumber      string    `json:"serialNumber"`
	ModelNumber       string    `json:"modelNumber"`
	MaxDateWithEvents time.Time `json:"maxDateWithEvents"`
}

// SyncCycle is one completed orchestrator pass, recorded in the
// optional sync journal for diagnostics. Sync decisions never read it.
type SyncCycle struct {
	ID             int64
	WindowStart    time.Time
	WindowEnd      time.Time
	EventsDecoded  int
	Unclassified   int
	RecordsWritten int
	MaxSeqNum      uint32
	Elapsed        time.Duration
	Error          string
}

// SyncSummary aggregates one orchestrator pass over a time window.
type SyncSummary struct {
	Written      int
	MaxSeqNum    uint32
	Decoded      int
	Unclassified int
	MinEventTime time.Time
	MaxEventTime time.Time
	PerClass     map[string]int
}
