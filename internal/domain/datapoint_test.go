package domain

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func newSamplePoint() *DataPoint {
	return NewDataPoint(
		Entry{Name: "time", Value: Timestamp(time.Date(2015, 6, 1, 12, 30, 0, 0, time.UTC))},
		Entry{Name: "lat", Value: Number(54.5)},
		Entry{Name: "analysed_sst", Value: Number(12.25)},
		Entry{Name: "sea_ice_fraction", Value: Missing()},
	)
}

func TestDataPoint_Render(t *testing.T) {
	p := newSamplePoint()

	tests := []struct {
		name     string
		names    []string
		suppress bool
		expected string
		ok       bool
	}{
		{"all in insertion order", nil, false, "201506011230 54.5 12.25 --", true},
		{"selected order", []string{"analysed_sst", "time"}, false, "12.25 201506011230", true},
		{"unknown name renders missing", []string{"lat", "wind"}, false, "54.5 --", true},
		{"suppressed", nil, true, "", false},
		// Suppression looks at the whole record, not just the selected names.
		{"suppressed by unselected value", []string{"lat"}, true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Render(tt.names, tt.suppress)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, got, ok)
			}
		})
	}

	complete := NewDataPoint(Entry{Name: "lat", Value: Number(54.5)})
	if got, ok := complete.Render(nil, true); !ok || got != "54.5" {
		t.Errorf("complete record: expected (%q, true), got (%q, %v)", "54.5", got, ok)
	}
}

func TestDataPoint_RenderAbsentName(t *testing.T) {
	p := NewDataPoint(Entry{Name: "lat", Value: Number(54.5)})

	tests := []struct {
		name     string
		suppress bool
		expected string
		ok       bool
	}{
		{"rendered as missing", false, "54.5 --", true},
		{"suppressed", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Render([]string{"lat", "sea_ice_fraction"}, tt.suppress)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestDataPoint_NumberPrecision(t *testing.T) {
	// 280 K decoded from a packed short, converted to Celsius.
	packed, scale, offset := 685.0, 0.01, 273.15
	celsius := packed*scale + offset - KelvinOffset

	tests := []struct {
		name  string
		value float64
		bare  string
		json  string
	}{
		{"decoded celsius", celsius, "6.85", `{"v":6.85}`},
		{"negative", -1.8, "-1.8", `{"v":-1.8}`},
		{"sentinel", NoIceSentinelKm, "1000", `{"v":1000}`},
		{"beyond float32", 1e300, strconv.FormatFloat(1e300, 'f', -1, 64), `{"v":` + strconv.FormatFloat(1e300, 'f', -1, 64) + `}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDataPoint(Entry{Name: "v", Value: Number(tt.value)})
			if got := p.String(); got != tt.bare {
				t.Errorf("bare: expected %q, got %q", tt.bare, got)
			}
			data, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("json: expected %s, got %s", tt.json, data)
			}
		})
	}
}

func TestDataPoint_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(newSamplePoint())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := `{"time":"2015-06-01T12:30:00Z","lat":54.5,"analysed_sst":12.25,"sea_ice_fraction":null}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}
}

func TestDataPoint_Get(t *testing.T) {
	p := newSamplePoint()

	if v, ok := p.Get("analysed_sst"); !ok || v.Number != 12.25 {
		t.Errorf("analysed_sst: expected 12.25, got %v (found=%v)", v, ok)
	}
	if _, ok := p.Get("wind"); ok {
		t.Errorf("wind: expected not found")
	}
	if !p.HasMissing() {
		t.Errorf("expected HasMissing to be true")
	}
	if p.String() != "201506011230 54.5 12.25 --" {
		t.Errorf("unexpected String(): %q", p.String())
	}
}
