package models

import (
	"strings"
	"time"
)

// Treatment event types written to the target store. These are the
// wire values existing Nightscout-style consumers already accept, so
// they must not be renamed.
const (
	EventTypeTempBasal       = "Temp Basal"
	EventTypeBasalSuspension = "Basal Suspension"
	EventTypeBasalResume     = "Basal Resume"
	EventTypeBolus           = "Combo Bolus"
	EventTypeSiteChange      = "Site Change"
	EventTypeAlarm           = "Announcement"
	EventTypeCgmAlert        = "CGM Alert"
	EventTypeSensorStart     = "Sensor Start"
	EventTypeSensorJoin      = "Sensor Join"
	EventTypeSensorStop      = "Sensor Stop"
	EventTypeSleep           = "Sleep Mode"
	EventTypeExercise        = "Exercise Mode"
	EventTypeDeviceStatus    = "Device Status"
)

// NotEndedSuffix marks an in-progress user-mode session in the reason
// field of an uploaded record. The next sync cycle detects it, deletes
// the record and reissues it with the final duration. The state signal
// lives inside display text for wire compatibility with records already
// uploaded by older versions; IsNotEnded is the only place that knows.
const NotEndedSuffix = " (Not Ended)"

// EnteredBy tags every record this service writes, so last-uploaded
// queries never match records created by other uploaders.
const EnteredBy = "tconnectsync"

// Treatment is one record in the target time-series store.
type Treatment struct {
	ID          string    `json:"_id,omitempty"`
	EventType   string    `json:"eventType"`
	CreatedAt   time.Time `json:"created_at"`
	Duration    *float64  `json:"duration,omitempty"` // minutes
	Rate        *float64  `json:"rate,omitempty"`     // units/hr
	Carbs       *float64  `json:"carbs,omitempty"`    // grams
	Insulin     *float64  `json:"insulin,omitempty"`  // units
	Glucose     *int      `json:"glucose,omitempty"`  // mg/dL
	GlucoseType string    `json:"glucoseType,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	EnteredBy   string    `json:"enteredBy,omitempty"`
	PumpEventID string    `json:"pump_event_id,omitempty"` // source seqNum
	SyncID      string    `json:"syncIdentifier,omitempty"`
}

// IsNotEnded reports whether this record describes a session that was
// still in progress when it was uploaded.
func (t *Treatment) IsNotEnded() bool {
	return strings.HasSuffix(t.Reason, NotEndedSuffix)
}

// Entry is one CGM glucose reading in the target store.
type Entry struct {
	ID         string `json:"_id,omitempty"`
	Type       string `json:"type"` // "sgv"
	SGV        int    `json:"sgv"`  // mg/dL
	Date       int64  `json:"date"` // unix millis of capture time
	DateString string `json:"dateString"`
	Direction  string `json:"direction,omitempty"`
	Device     string `json:"device,omitempty"`
}

// EntryTime returns the capture time of the reading.
func (e *Entry) EntryTime() time.Time {
	return time.UnixMilli(e.Date).UTC()
}
