package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/sst-validation/internal/adapter/store"
	"go.ngs.io/sst-validation/internal/adapter/store/ghrsst"
	"go.ngs.io/sst-validation/internal/adapter/store/matchup"
	"go.ngs.io/sst-validation/internal/logging"
	"go.ngs.io/sst-validation/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter serves one 280 K North Sea file dated 2015-03-12. When allLand is
// set every cell is land.
func newTestRouter(t *testing.T, allLand bool, matchups matchup.Store) *gin.Engine {
	t.Helper()
	dir := t.TempDir()

	s := &ghrsst.Snapshot{
		Time:       time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC),
		Lat:        []float64{54.0, 54.5, 55.0},
		Lon:        []float64{6.0, 6.5, 7.0},
		Resolution: 0.5,
		SSTKelvin:  [][]float64{{280, 280, 280}, {280, 280, 280}, {280, 280, 280}},
		Land:       [][]bool{{allLand, allLand, allLand}, {allLand, allLand, allLand}, {allLand, allLand, allLand}},
	}
	if err := ghrsst.WriteFile(filepath.Join(dir, s.FileName()), s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	logger := logging.Discard()
	loader, err := store.NewCachedLoader(ghrsst.NewLoader(ghrsst.DefaultConfig()), 2, logger)
	if err != nil {
		t.Fatalf("NewCachedLoader: %v", err)
	}
	uc := usecase.NewExtractUseCase(ghrsst.NewCatalog(dir, ""), loader, matchups, usecase.DefaultConfig(), logger)
	return SetupRouter(uc, "", logger)
}

func do(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetPoints(t *testing.T) {
	router := newTestRouter(t, false, nil)

	w := do(router, http.MethodGet, "/v1/points?lat=54.4&lon=6.6&from=2015-03-12&vars=time,analysed_sst")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Results []struct {
			Date   time.Time       `json:"date"`
			Values json.RawMessage `json:"values"`
			Line   string          `json:"line"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(body.Results))
	}

	res := body.Results[0]
	if string(res.Values) != `{"time":"2015-03-12T00:00:00Z","analysed_sst":6.85}` {
		t.Errorf("unexpected values %s", res.Values)
	}
	if res.Line != "201503120000 6.85" {
		t.Errorf("unexpected line %q", res.Line)
	}
}

func TestGetPoints_Errors(t *testing.T) {
	router := newTestRouter(t, false, nil)

	tests := []struct {
		name     string
		target   string
		status   int
		contains string
	}{
		{"missing lat", "/v1/points?lon=6.6&from=2015-03-12", http.StatusBadRequest, "required"},
		{"bad date", "/v1/points?lat=54.4&lon=6.6&from=yesterday", http.StatusBadRequest, "invalid from date"},
		{"reversed range", "/v1/points?lat=54.4&lon=6.6&from=2015-03-13&to=2015-03-12", http.StatusBadRequest, "invalid request"},
		{"out of range", "/v1/points?lat=60&lon=6.6&from=2015-03-12", http.StatusBadRequest, `"axis":"latitude"`},
		{"unknown variable", "/v1/points?lat=54.4&lon=6.6&from=2015-03-12&vars=wind_speed", http.StatusBadRequest, `"available"`},
		{"no files", "/v1/points?lat=54.4&lon=6.6&from=2016-01-01", http.StatusNotFound, "no satellite files"},
		{"matchups disabled", "/v1/matchups", http.StatusNotImplemented, "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %s", tt.contains, w.Body.String())
			}
		})
	}
}

func TestGetPoints_NoDataInWindow(t *testing.T) {
	router := newTestRouter(t, true, nil)

	w := do(router, http.MethodGet, "/v1/points?lat=54.4&lon=6.6&from=2015-03-12&vars=analysed_sst_smoothed")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDatesAndDataset(t *testing.T) {
	router := newTestRouter(t, false, nil)

	w := do(router, http.MethodGet, "/v1/dates")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"dates":["2015-03-12"]`) {
		t.Fatalf("unexpected dates response %d: %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodGet, "/v1/datasets/2015-03-12")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var info usecase.DatasetInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Latitude.Min != 53.75 || info.Longitude.Max != 7.25 {
		t.Errorf("unexpected bounds %+v %+v", info.Latitude, info.Longitude)
	}

	if w := do(router, http.MethodGet, "/v1/datasets/2015-03-13"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/v1/datasets/soon"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMatchups(t *testing.T) {
	db, err := matchup.NewSQLite(filepath.Join(t.TempDir(), "matchups.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer db.Close()
	router := newTestRouter(t, false, db)

	w := do(router, http.MethodPost, "/v1/matchups?lat=54.5&lon=6.5&from=201503120000&vars=analysed_sst")
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"saved":1`) {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodGet, "/v1/matchups?limit=5")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("unexpected response %d: %s", w.Code, w.Body.String())
	}

	if w := do(router, http.MethodGet, "/v1/matchups?limit=-1"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, false, nil)

	if w := do(router, http.MethodGet, "/health"); w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}

	do(router, http.MethodGet, "/v1/points?lat=54.4&lon=6.6&from=2015-03-12")
	w := do(router, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "sst_point_queries_total") {
		t.Errorf("metrics: unexpected response %d", w.Code)
	}
}
