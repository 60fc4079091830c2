package domain

import (
	"strings"
	"testing"
	"time"
)

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Dataset)
		wantErr string
	}{
		{"valid", func(d *Dataset) {}, ""},
		{"no latitudes", func(d *Dataset) { d.Lat = nil }, "no latitudes"},
		{"descending longitudes", func(d *Dataset) { d.Lon = []float64{7, 6.5, 6} }, "longitudes must be strictly increasing"},
		{"zero resolution", func(d *Dataset) { d.LatResolution = 0 }, "invalid latitude resolution"},
		{"missing mask", func(d *Dataset) { delete(d.Fields, DefaultMaskVar) }, `"mask" not found`},
		{"short row", func(d *Dataset) { d.Fields[DefaultPrimaryVar].Values[1] = []float64{280} }, "row 1 has 1 values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDataset([]float64{54, 54.5, 55}, []float64{6, 6.5, 7}, 0.5, 280)
			tt.mutate(d)

			err := d.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDataset_TimeAndNames(t *testing.T) {
	d := newTestDataset([]float64{54}, []float64{6}, 0.5, 280)

	if got, want := d.Time(), time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}

	names := d.VariableNames()
	if len(names) != len(d.Variables)+2 {
		t.Fatalf("expected %d names, got %v", len(d.Variables)+2, names)
	}
	if names[len(names)-2] != "analysed_sst_smoothed" || names[len(names)-1] != IceDistanceVarName {
		t.Errorf("unexpected derived names %v", names[len(names)-2:])
	}
}

func TestDataset_IsSea(t *testing.T) {
	d := newTestDataset([]float64{54, 54.5}, []float64{6, 6.5}, 0.5, 280)
	mask := d.Fields[DefaultMaskVar]
	mask.Values[0][1] = 2 // land
	mask.Values[1][0] = 3 // sea with extra flag bits
	setMissing(mask, 1, 1)

	tests := []struct {
		i, j int
		want bool
	}{
		{0, 0, true},
		{0, 1, false},
		{1, 0, true},
		{1, 1, false},
	}
	for _, tt := range tests {
		if got := d.isSea(tt.i, tt.j); got != tt.want {
			t.Errorf("isSea(%d, %d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}
}
