package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/sst-validation/internal/domain"
	"go.ngs.io/sst-validation/internal/usecase"
)

// Accepted date parameter layouts, most specific first.
var dateLayouts = []string{time.RFC3339, "200601021504", time.DateOnly}

// Handler handles HTTP requests for satellite point extraction.
type Handler struct {
	extractUC *usecase.ExtractUseCase
	logger    *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(extractUC *usecase.ExtractUseCase, logger *slog.Logger) *Handler {
	return &Handler{
		extractUC: extractUC,
		logger:    logger,
	}
}

// parseExtractRequest builds an extraction request from query parameters.
func parseExtractRequest(c *gin.Context) (usecase.ExtractRequest, error) {
	var req usecase.ExtractRequest

	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return req, fmt.Errorf("lat and lon parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return req, fmt.Errorf("invalid latitude: %v", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return req, fmt.Errorf("invalid longitude: %v", err)
	}
	req.Lat = &lat
	req.Lon = &lon

	fromStr := c.Query("from")
	if fromStr == "" {
		return req, fmt.Errorf("from parameter is required")
	}
	if req.From, err = parseDate(fromStr); err != nil {
		return req, fmt.Errorf("invalid from date: %v", err)
	}
	if toStr := c.Query("to"); toStr != "" {
		if req.To, err = parseDate(toStr); err != nil {
			return req, fmt.Errorf("invalid to date: %v", err)
		}
	}

	if vars := c.Query("vars"); vars != "" {
		for _, name := range strings.Split(vars, ",") {
			req.Variables = append(req.Variables, strings.TrimSpace(name))
		}
	}

	if s := c.Query("ignore_if_missing"); s != "" {
		if req.IgnoreIfMissing, err = strconv.ParseBool(s); err != nil {
			return req, fmt.Errorf("invalid ignore_if_missing: %v", err)
		}
	}

	return req, nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, YYYYMMDDhhmm or RFC3339: %w", err)
}

// GetPoints handles GET /v1/points.
func (h *Handler) GetPoints(c *gin.Context) {
	req, err := parseExtractRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.extractUC.Execute(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// PostMatchups handles POST /v1/matchups.
func (h *Handler) PostMatchups(c *gin.Context) {
	req, err := parseExtractRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, saved, err := h.extractUC.SaveMatchups(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"saved":  saved,
		"result": response,
	})
}

// GetMatchups handles GET /v1/matchups.
func (h *Handler) GetMatchups(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := h.extractUC.ListMatchups(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matchups": records,
		"count":    len(records),
	})
}

// GetDates handles GET /v1/dates.
func (h *Handler) GetDates(c *gin.Context) {
	dates, err := h.extractUC.Dates(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dates": dates,
		"count": len(dates),
	})
}

// GetDataset handles GET /v1/datasets/:date.
func (h *Handler) GetDataset(c *gin.Context) {
	day, err := parseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid date: %v", err)})
		return
	}

	info, err := h.extractUC.Describe(c.Request.Context(), day)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps use case errors to HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		oor *domain.OutOfRangeError
		uv  *domain.UnknownVariableError
	)

	body := gin.H{"error": err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.As(err, &oor):
		status = http.StatusBadRequest
		body["axis"] = oor.Axis
		body["valid_range"] = domain.Range{Min: oor.Min, Max: oor.Max}
	case errors.As(err, &uv):
		status = http.StatusBadRequest
		body["available"] = uv.Available
	case errors.Is(err, domain.ErrNoDataInWindow):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrNoFiles):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrMatchupsDisabled):
		status = http.StatusNotImplemented
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.JSON(status, body)
}
