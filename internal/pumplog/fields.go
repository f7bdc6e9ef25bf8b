package pumplog

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FieldType is the primitive wire type of a payload field. All
// multi-byte fields are big-endian.
type FieldType int

const (
	Uint8 FieldType = iota
	Int8
	Uint16
	Int16
	Uint32
	Float32
)

// size in bytes of each primitive type
var fieldTypeSize = map[FieldType]int{
	Uint8:   1,
	Int8:    1,
	Uint16:  2,
	Int16:   2,
	Uint32:  4,
	Float32: 4,
}

// Derivation tags a field whose raw integer is further interpreted.
type Derivation int

const (
	DeriveNone Derivation = iota
	DeriveEnum            // raw integer -> named variant via per-field table
	DeriveBitmask         // raw integer -> set of named flags by bit position
	DeriveDictionary      // raw integer -> name via a shared id table
	DeriveRatio           // raw * fixed scale -> physical unit
	DeriveBatteryPercent  // two split bytes -> percentage
)

// Field declares one payload field of an event type: where it lives,
// its primitive type and how its raw value is interpreted.
type Field struct {
	Name   string
	Offset int // byte offset within the 16-byte payload
	Type   FieldType
	Unit   string
	Derive Derivation

	// DeriveEnum
	Enum map[int64]string
	// EnumPrefix names the synthetic fallback variant for raw values
	// absent from Enum, e.g. prefix "Alert" + raw 97 -> "UnknownAlert97".
	// The fallback is derived from the raw code so re-decoding an unseen
	// value always yields the same label.
	EnumPrefix string

	// DeriveBitmask: flag name per bit position; "" leaves a synthetic
	// UnknownBitN name for bits set outside the table.
	Flags []string

	// DeriveDictionary
	Dict       map[int64]string
	DictPrefix string

	// DeriveRatio
	Scale float64

	// DeriveBatteryPercent: Offset addresses the msb byte, LSBOffset the
	// lsb byte.
	LSBOffset int
}

// Value is one decoded field. Raw is always the primitive as read from
// the wire (integers widened to float64); Derived carries the derived
// interpretation when the field declares one: string for enum and
// dictionary, []string for bitmask, float64 for ratio and battery
// percent, nil otherwise. Both stay independently accessible.
type Value struct {
	Raw     float64
	Derived any
	Unit    string
}

// readPrimitive decodes the field's primitive from the payload.
func readPrimitive(payload []byte, f *Field) float64 {
	switch f.Type {
	case Uint8:
		return float64(payload[f.Offset])
	case Int8:
		return float64(int8(payload[f.Offset]))
	case Uint16:
		return float64(binary.BigEndian.Uint16(payload[f.Offset : f.Offset+2]))
	case Int16:
		return float64(int16(binary.BigEndian.Uint16(payload[f.Offset : f.Offset+2])))
	case Uint32:
		return float64(binary.BigEndian.Uint32(payload[f.Offset : f.Offset+4]))
	case Float32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(payload[f.Offset : f.Offset+4])))
	}
	return 0
}

// deriveValue applies the field's derivation to the raw value.
func deriveValue(payload []byte, f *Field, raw float64) any {
	switch f.Derive {
	case DeriveEnum:
		return lookupName(f.Enum, f.EnumPrefix, int64(raw))
	case DeriveDictionary:
		return lookupName(f.Dict, f.DictPrefix, int64(raw))
	case DeriveBitmask:
		return deriveFlags(f.Flags, int64(raw))
	case DeriveRatio:
		return raw * f.Scale
	case DeriveBatteryPercent:
		msb := float64(payload[f.Offset])
		lsb := float64(payload[f.LSBOffset])
		return batteryPercent(msb, lsb)
	}
	return nil
}

// lookupName resolves a raw code against a name table, falling back to
// a stable synthetic name for codes the table does not know. Unknown
// codes are never an error: the pipeline must keep running against
// newer firmware.
func lookupName(table map[int64]string, prefix string, raw int64) string {
	if name, ok := table[raw]; ok {
		return name
	}
	if prefix == "" {
		prefix = "Value"
	}
	return fmt.Sprintf("Unknown%s%d", prefix, raw)
}

// deriveFlags expands a bitmask into the names of its set bits. A zero
// mask yields an empty set.
func deriveFlags(names []string, raw int64) []string {
	flags := []string{}
	for bit := 0; bit < 64; bit++ {
		if raw&(1<<bit) == 0 {
			continue
		}
		if bit < len(names) && names[bit] != "" {
			flags = append(flags, names[bit])
		} else {
			flags = append(flags, fmt.Sprintf("UnknownBit%d", bit))
		}
	}
	return flags
}

// batteryPercent converts the split battery charge bytes to a
// percentage. The formula is empirically reverse-engineered from
// observed device samples and must be preserved bit-for-bit; revalidate
// against new hardware revisions before touching it.
func batteryPercent(msb, lsb float64) float64 {
	return (256*(msb-14) + lsb) / (3 * 256)
}
