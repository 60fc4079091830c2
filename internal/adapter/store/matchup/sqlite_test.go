package matchup

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "matchups.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		{Lat: 54.4, Lon: 6.6, Date: time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC), File: "a.nc",
			Values: json.RawMessage(`{"time":"2015-03-12T00:00:00Z","analysed_sst":6.85}`)},
		{Lat: 54.4, Lon: 6.6, Date: time.Date(2015, 3, 13, 0, 0, 0, 0, time.UTC), File: "b.nc",
			Values: json.RawMessage(`{"time":"2015-03-13T00:00:00Z","analysed_sst":null}`)},
	}
	if err := s.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	// Newest file date first; stored values keep their key order.
	if got[0].File != "b.nc" || got[1].File != "a.nc" {
		t.Errorf("unexpected order: %s, %s", got[0].File, got[1].File)
	}
	if string(got[1].Values) != `{"time":"2015-03-12T00:00:00Z","analysed_sst":6.85}` {
		t.Errorf("unexpected values: %s", got[1].Values)
	}
	if got[0].ID == 0 || got[0].CreatedAt.IsZero() {
		t.Errorf("expected id and creation time to be set: %+v", got[0])
	}
	if !got[1].Date.Equal(records[0].Date) || got[1].Lat != 54.4 {
		t.Errorf("unexpected record: %+v", got[1])
	}

	limited, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 record, got %d", len(limited))
	}
}

func TestSQLiteStore_SaveRejectsInvalidJSON(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		{File: "ok.nc", Values: json.RawMessage(`{}`)},
		{File: "bad.nc", Values: json.RawMessage(`{"analysed_sst":`)},
	}
	if err := s.Save(ctx, records); err == nil {
		t.Fatal("expected error for invalid values")
	}

	// The transaction is rolled back as a whole.
	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
