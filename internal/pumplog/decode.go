package pumplog

import "time"

// Event is a decoded event-log record: the raw record plus the typed
// fields its registry descriptor declares. Unregistered event ids
// produce a raw-only Event (Known=false) so unknown firmware event
// types flow through without failing.
type Event struct {
	Record RawRecord
	Name   string
	Known  bool
	Values map[string]Value
}

// Decode looks the record's event id up in the registry and decodes the
// declared fields.
func Decode(rec RawRecord) Event {
	desc, ok := registry[rec.EventID]
	if !ok {
		return Event{Record: rec}
	}

	ev := Event{
		Record: rec,
		Name:   desc.Name,
		Known:  true,
		Values: make(map[string]Value, len(desc.Fields)),
	}
	for i := range desc.Fields {
		f := &desc.Fields[i]
		raw := readPrimitive(rec.Payload[:], f)
		ev.Values[f.Name] = Value{
			Raw:     raw,
			Derived: deriveValue(rec.Payload[:], f, raw),
			Unit:    f.Unit,
		}
	}
	return ev
}

// DecodeAll decodes every record in order.
func DecodeAll(records []RawRecord) []Event {
	events := make([]Event, len(records))
	for i, rec := range records {
		events[i] = Decode(rec)
	}
	return events
}

// Timestamp returns the absolute UTC time from the record header.
func (e Event) Timestamp() time.Time {
	return e.Record.Timestamp()
}

// Has reports whether the event carries the named field.
func (e Event) Has(name string) bool {
	_, ok := e.Values[name]
	return ok
}

// Raw returns the raw primitive value of the named field, 0 if absent.
func (e Event) Raw(name string) float64 {
	return e.Values[name].Raw
}

// Int returns the raw value of the named field as an integer.
func (e Event) Int(name string) int64 {
	return int64(e.Values[name].Raw)
}

// Str returns the derived enum/dictionary name of the named field.
func (e Event) Str(name string) string {
	s, _ := e.Values[name].Derived.(string)
	return s
}

// Flags returns the derived bitmask flag set of the named field.
func (e Event) Flags(name string) []string {
	f, _ := e.Values[name].Derived.([]string)
	return f
}

// Num returns the derived numeric value of the named field (ratio,
// battery percent), falling back to the raw value when the field has no
// numeric derivation.
func (e Event) Num(name string) float64 {
	if n, ok := e.Values[name].Derived.(float64); ok {
		return n
	}
	return e.Values[name].Raw
}
