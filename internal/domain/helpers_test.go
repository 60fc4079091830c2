package domain

// fill returns an nLat x nLon array filled with v.
func fill(nLat, nLon int, v float64) [][]float64 {
	values := make([][]float64, nLat)
	for i := range values {
		values[i] = make([]float64, nLon)
		for j := range values[i] {
			values[i][j] = v
		}
	}
	return values
}

// newTestDataset builds an all-sea, ice-free dataset with a uniform primary field in Kelvin.
func newTestDataset(lat, lon []float64, res, kelvin float64) *Dataset {
	nLat, nLon := len(lat), len(lon)
	return &Dataset{
		Path:          "test.nc",
		Lat:           lat,
		Lon:           lon,
		LatResolution: res,
		LonResolution: res,
		TimeSeconds:   1072915200, // 2015-01-01T00:00:00Z
		Fields: map[string]*Field{
			DefaultPrimaryVar: {Name: DefaultPrimaryVar, Units: "kelvin", Values: fill(nLat, nLon, kelvin)},
			DefaultMaskVar:    {Name: DefaultMaskVar, Values: fill(nLat, nLon, 1)},
			DefaultSeaIceVar:  {Name: DefaultSeaIceVar, Values: fill(nLat, nLon, 0)},
		},
		Variables:  []string{LatVarName, LonVarName, TimeVarName, DefaultPrimaryVar, DefaultMaskVar, DefaultSeaIceVar},
		PrimaryVar: DefaultPrimaryVar,
		MaskVar:    DefaultMaskVar,
		SeaIceVar:  DefaultSeaIceVar,
	}
}

// setMissing flags one cell of a field as missing.
func setMissing(f *Field, i, j int) {
	if f.Missing == nil {
		f.Missing = make([][]bool, len(f.Values))
		for r := range f.Missing {
			f.Missing[r] = make([]bool, len(f.Values[r]))
		}
	}
	f.Missing[i][j] = true
}
