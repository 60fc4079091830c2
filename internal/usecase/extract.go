package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"go.ngs.io/sst-validation/internal/adapter/store"
	"go.ngs.io/sst-validation/internal/adapter/store/ghrsst"
	"go.ngs.io/sst-validation/internal/adapter/store/matchup"
	"go.ngs.io/sst-validation/internal/domain"
	"go.ngs.io/sst-validation/internal/metrics"
)

// MaxRange is the longest extraction window.
const MaxRange = 366 * 24 * time.Hour

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoFiles is returned when no input file matches a date window.
	ErrNoFiles = errors.New("no satellite files found")

	// ErrMatchupsDisabled is returned when no match-up store is configured.
	ErrMatchupsDisabled = errors.New("match-up storage is not configured")
)

// FileCatalog finds input files by date.
type FileCatalog interface {
	Files(from, to time.Time) iter.Seq2[string, error]
	AvailableDates() ([]time.Time, error)
	FileForDate(day time.Time) (string, error)
}

// ExtractRequest encapsulates a point extraction request
type ExtractRequest struct {
	Lat *float64
	Lon *float64

	// Variables to return, in order. Empty means every declared variable.
	Variables []string

	// File date window [From, To). A zero To means one day after From.
	From time.Time
	To   time.Time

	// IgnoreIfMissing drops a file's record when any value is missing.
	IgnoreIfMissing bool
}

// ExtractResponse contains one result per matching file, ordered by file date
type ExtractResponse struct {
	Lat       float64           `json:"lat"`
	Lon       float64           `json:"lon"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Variables []string          `json:"variables,omitempty"`
	Results   []FileResult      `json:"results"`
	Meta      map[string]string `json:"meta"`
}

// FileResult is the outcome of one file
type FileResult struct {
	File    string            `json:"file"`
	Date    time.Time         `json:"date"`
	Values  *domain.DataPoint `json:"values,omitempty"`
	Line    string            `json:"line,omitempty"` // Bare values, space separated.
	Skipped bool              `json:"skipped,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// DatasetInfo describes one input file
type DatasetInfo struct {
	File          string       `json:"file"`
	Date          string       `json:"date"`
	Time          time.Time    `json:"time"`
	Variables     []string     `json:"variables"`
	Latitude      domain.Range `json:"latitude"`
	Longitude     domain.Range `json:"longitude"`
	LatResolution float64      `json:"lat_resolution"`
	LonResolution float64      `json:"lon_resolution"`
}

// Config tunes the extraction.
type Config struct {
	SmoothingRadiusKm float64
	Concurrency       int
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		SmoothingRadiusKm: domain.DefaultSmoothingRadiusKm,
		Concurrency:       runtime.NumCPU(),
	}
}

// ExtractUseCase orchestrates point extraction over the input files
type ExtractUseCase struct {
	catalog  FileCatalog
	loader   store.DatasetLoader
	matchups matchup.Store
	config   Config
	logger   *slog.Logger
}

// NewExtractUseCase creates a new extraction use case. matchups may be nil.
func NewExtractUseCase(catalog FileCatalog, loader store.DatasetLoader, matchups matchup.Store, config Config, logger *slog.Logger) *ExtractUseCase {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &ExtractUseCase{
		catalog:  catalog,
		loader:   loader,
		matchups: matchups,
		config:   config,
		logger:   logger,
	}
}

// Validate checks if the request is valid. Coordinate bounds are checked per
// file against the grid envelope.
func (r *ExtractRequest) Validate() error {
	if r.Lat == nil || r.Lon == nil {
		return fmt.Errorf("lat and lon must be provided")
	}
	if math.IsNaN(*r.Lat) || math.IsInf(*r.Lat, 0) || math.IsNaN(*r.Lon) || math.IsInf(*r.Lon, 0) {
		return fmt.Errorf("lat and lon must be finite")
	}

	if r.From.IsZero() {
		return fmt.Errorf("from date must be provided")
	}
	if r.To.IsZero() {
		r.To = r.From.AddDate(0, 0, 1)
	}
	if !r.From.Before(r.To) {
		return fmt.Errorf("from date must be before to date")
	}
	if r.To.Sub(r.From) > MaxRange {
		return fmt.Errorf("date range must be at most 366 days")
	}

	for _, name := range r.Variables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("variable names must not be empty")
		}
	}
	return nil
}

// Execute extracts the requested point from every file in the window.
//
// A file that fails to load is reported on its own result and does not stop the
// others. Out-of-range points, unknown variables and empty smoothing windows fail
// the whole request.
func (uc *ExtractUseCase) Execute(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	start := time.Now()
	defer func() { metrics.ExtractDuration.Observe(time.Since(start).Seconds()) }()

	files, err := uc.files(req.From, req.To)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w between %s and %s", ErrNoFiles,
			req.From.UTC().Format(time.RFC3339), req.To.UTC().Format(time.RFC3339))
	}

	lat, lon := *req.Lat, *req.Lon
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.config.Concurrency)
	for i, f := range files {
		results[i] = FileResult{File: f.path, Date: f.date}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return uc.queryFile(&results[i], lat, lon, req)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	uc.logger.Info("extraction completed",
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
		slog.Int("files", len(files)),
		slog.Duration("elapsed", time.Since(start)))

	return &ExtractResponse{
		Lat:       lat,
		Lon:       lon,
		From:      req.From.UTC().Format(time.RFC3339),
		To:        req.To.UTC().Format(time.RFC3339),
		Variables: req.Variables,
		Results:   results,
		Meta: map[string]string{
			"files":               fmt.Sprintf("%d", len(files)),
			"smoothing_radius_km": fmt.Sprintf("%g", uc.config.SmoothingRadiusKm),
			"generated_at":        time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// queryFile fills res for one file.
func (uc *ExtractUseCase) queryFile(res *FileResult, lat, lon float64, req ExtractRequest) error {
	ds, err := uc.loader.Load(res.File)
	if err != nil {
		var loadErr *domain.DatasetLoadError
		if errors.As(err, &loadErr) {
			metrics.PointQueries.WithLabelValues(metrics.ResultError).Inc()
			uc.logger.Warn("skipping unreadable file", slog.String("file", res.File), slog.Any("error", err))
			res.Error = err.Error()
			return nil
		}
		return err
	}

	r := domain.NewResolver(ds)
	r.SmoothingRadiusKm = uc.config.SmoothingRadiusKm

	p, err := r.Query(lat, lon, req.Variables)
	if err != nil {
		metrics.PointQueries.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	line, ok := p.Render(req.Variables, req.IgnoreIfMissing)
	if !ok {
		metrics.PointQueries.WithLabelValues(metrics.ResultSkipped).Inc()
		res.Skipped = true
		return nil
	}
	metrics.PointQueries.WithLabelValues(metrics.ResultOK).Inc()
	res.Values = p
	res.Line = line
	return nil
}

type datedFile struct {
	path string
	date time.Time
}

// files lists the input files of [from, to) ordered by file date.
func (uc *ExtractUseCase) files(from, to time.Time) ([]datedFile, error) {
	var files []datedFile
	for path, err := range uc.catalog.Files(from, to) {
		if err != nil {
			return nil, fmt.Errorf("failed to list satellite files: %w", err)
		}
		date, err := ghrsst.FileDate(path)
		if err != nil {
			return nil, err
		}
		files = append(files, datedFile{path: path, date: date})
	}

	slices.SortFunc(files, func(a, b datedFile) int {
		if c := a.date.Compare(b.date); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})
	return files, nil
}

// Dates returns the days that have an input file.
func (uc *ExtractUseCase) Dates(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates, err := uc.catalog.AvailableDates()
	if err != nil {
		return nil, fmt.Errorf("failed to list available dates: %w", err)
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out, nil
}

// Describe returns the variables and extent of the file for day.
func (uc *ExtractUseCase) Describe(ctx context.Context, day time.Time) (*DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := uc.catalog.FileForDate(day)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrNoFiles, day.Format(time.DateOnly), err)
	}

	ds, err := uc.loader.Load(path)
	if err != nil {
		return nil, err
	}

	latRange, lonRange := ds.Index().Bounds()
	return &DatasetInfo{
		File:          path,
		Date:          day.Format(time.DateOnly),
		Time:          ds.Time(),
		Variables:     ds.VariableNames(),
		Latitude:      latRange,
		Longitude:     lonRange,
		LatResolution: ds.LatResolution,
		LonResolution: ds.LonResolution,
	}, nil
}

// SaveMatchups runs the extraction and stores every returned record.
func (uc *ExtractUseCase) SaveMatchups(ctx context.Context, req ExtractRequest) (*ExtractResponse, int, error) {
	if uc.matchups == nil {
		return nil, 0, ErrMatchupsDisabled
	}

	resp, err := uc.Execute(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	records := make([]matchup.Record, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res.Values == nil {
			continue
		}
		values, err := json.Marshal(res.Values)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode values of %s: %w", res.File, err)
		}
		records = append(records, matchup.Record{
			Lat:    resp.Lat,
			Lon:    resp.Lon,
			Date:   res.Date,
			File:   res.File,
			Values: values,
		})
	}

	if err := uc.matchups.Save(ctx, records); err != nil {
		return nil, 0, fmt.Errorf("failed to save match-ups: %w", err)
	}
	metrics.MatchupsSaved.Add(float64(len(records)))
	return resp, len(records), nil
}

// ListMatchups returns the most recently stored records.
func (uc *ExtractUseCase) ListMatchups(ctx context.Context, limit int) ([]matchup.Record, error) {
	if uc.matchups == nil {
		return nil, ErrMatchupsDisabled
	}
	return uc.matchups.List(ctx, limit)
}
