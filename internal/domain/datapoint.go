package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/orderedmap"
)

// ValueKind tags the content of a Value.
type ValueKind int

const (
	// ValueNumber holds a float.
	ValueNumber ValueKind = iota
	// ValueTimestamp holds an absolute time.
	ValueTimestamp
	// ValueMissing marks a cell flagged missing by the underlying store.
	ValueMissing
)

// DefaultDateFormat renders timestamps in bare-value output.
const DefaultDateFormat = "200601021504"

// missingText is the bare rendering of a missing value.
const missingText = "--"

// Value is one resolved variable: a number, a timestamp, or missing.
type Value struct {
	Kind   ValueKind
	Number float64
	Time   time.Time
}

// Number returns a numeric value.
func Number(v float64) Value { return Value{Kind: ValueNumber, Number: v} }

// Timestamp returns a time value.
func Timestamp(t time.Time) Value { return Value{Kind: ValueTimestamp, Time: t} }

// Missing returns the missing value.
func Missing() Value { return Value{Kind: ValueMissing} }

// IsMissing reports whether the value is missing.
func (v Value) IsMissing() bool { return v.Kind == ValueMissing }

// String returns the bare rendering of the value.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return formatNumber(v.Number)
	case ValueTimestamp:
		return v.Time.UTC().Format(DefaultDateFormat)
	default:
		return missingText
	}
}

// MarshalJSON encodes numbers as JSON numbers, timestamps as RFC 3339 and missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.Number)), nil
	case ValueTimestamp:
		return json.Marshal(v.Time.UTC().Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// formatNumber renders v in the shortest form that round-trips through float32.
// Bare and JSON output share it. Values beyond the float32 range keep full precision.
func formatNumber(v float64) string {
	if f := float32(v); math.IsInf(float64(f), 0) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 32)
}

// Entry is one named value of a DataPoint.
type Entry struct {
	Name  string
	Value Value
}

// DataPoint is the ordered record of values produced by one query.
// It is not modified after construction.
type DataPoint struct {
	values *orderedmap.OrderedMap
}

// NewDataPoint builds a record from entries, keeping their order.
func NewDataPoint(entries ...Entry) *DataPoint {
	m := orderedmap.New()
	for _, e := range entries {
		m.Set(e.Name, e.Value)
	}
	return &DataPoint{values: m}
}

// Names returns the variable names in insertion order.
func (p *DataPoint) Names() []string {
	return p.values.Keys()
}

// Get returns the value for name.
func (p *DataPoint) Get(name string) (Value, bool) {
	v, ok := p.values.Get(name)
	if !ok {
		return Value{}, false
	}
	return v.(Value), true
}

// HasMissing reports whether any value of the record is missing.
func (p *DataPoint) HasMissing() bool {
	for _, name := range p.values.Keys() {
		if v, _ := p.Get(name); v.IsMissing() {
			return true
		}
	}
	return false
}

// Render returns the space-separated bare values for names, or for every value
// when names is empty. A name absent from the record renders as missing. When
// suppressIfAnyMissing is set and any value of the record or any requested name
// is missing, Render returns false and no output.
func (p *DataPoint) Render(names []string, suppressIfAnyMissing bool) (string, bool) {
	if len(names) == 0 {
		names = p.Names()
	}
	if suppressIfAnyMissing {
		if p.HasMissing() {
			return "", false
		}
		for _, name := range names {
			if _, ok := p.Get(name); !ok {
				return "", false
			}
		}
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := p.Get(name)
		if !ok {
			v = Missing()
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, " "), true
}

// String renders every value without suppression.
func (p *DataPoint) String() string {
	s, _ := p.Render(nil, false)
	return s
}

// MarshalJSON encodes the record as an object in insertion order.
func (p *DataPoint) MarshalJSON() ([]byte, error) {
	return p.values.MarshalJSON()
}
