// Package api provides HTTP handlers for the ZeroBait URL risk service.
//
//	@title			ZeroBait API
//	@version		1.0
//	@description	URL risk analysis service combining provider intelligence with AI narratives
//
//	@contact.name	ZeroBait
//	@contact.url	https://github.com/erhandundarofficial/zerobait
//
//	@host		localhost:8080
//	@BasePath	/api
//
//	@schemes	http https
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/erhandundarofficial/zerobait/internal/analysis"
	"github.com/erhandundarofficial/zerobait/internal/heuristics"
	"github.com/erhandundarofficial/zerobait/internal/providers"
	"github.com/erhandundarofficial/zerobait/internal/store"
	"github.com/erhandundarofficial/zerobait/internal/urlutil"
)

// intelProviderSafeBrowsing keys Safe Browsing hits in the intel hit table
const intelProviderSafeBrowsing = "googleSafeBrowsing"

// AnalyzeService is the analyzer contract the handlers call.
type AnalyzeService interface {
	Analyze(ctx context.Context, rawURL string) (analysis.Result, error)
}

// Handler manages API endpoints.
type Handler struct {
	analyzer AnalyzeService
	store    store.Store
	// intel refreshes the Safe Browsing hit during quick scans; nil when the
	// provider is unconfigured
	intel providers.Adapter
}

// NewHandler wires the handler's collaborators.
func NewHandler(analyzer AnalyzeService, st store.Store, intel providers.Adapter) *Handler {
	return &Handler{analyzer: analyzer, store: st, intel: intel}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Service   string `json:"service" example:"zerobait"`
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// handleHealth returns service health status
//
//	@Summary		Health check
//	@Description	Returns the health status of the ZeroBait service
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "zerobait",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// AnalyzeRequest represents a deep analysis request
type AnalyzeRequest struct {
	URL string `json:"url" example:"https://example.com/"`
}

// handleAnalyze runs the full multi-provider risk assessment
//
//	@Summary		Analyze URL risk
//	@Description	Runs the provider fan-out, risk scoring, and AI narrative for a URL
//	@Tags			analyze
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AnalyzeRequest	true	"URL to analyze"
//	@Success		200		{object}	analysis.Result
//	@Failure		400		{object}	Error
//	@Failure		500		{object}	Error
//	@Router			/ai/analyze [post]
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())

		return
	}

	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errCodeInvalidURL, ErrURLRequired.Error())

		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, errCodeInvalidURL, err.Error())

			return
		}

		log.Error().Err(err).Str("url", req.URL).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, errCodeAnalysisFailed, "analysis failed")

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ScanRequest represents a quick lexical scan request
type ScanRequest struct {
	URL string `json:"url" example:"https://example.com/"`
}

// ScanResponse represents the quick scan verdict
type ScanResponse struct {
	Verdict     string   `json:"verdict" example:"SAFE"`
	Reasons     []string `json:"reasons"`
	ReportCount int      `json:"report_count"`
}

// handleScan runs the heuristic quick scan
//
//	@Summary		Quick scan URL
//	@Description	Lexical checks plus community report and threat-intel signals, no AI involved
//	@Tags			scan
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ScanRequest	true	"URL to scan"
//	@Success		200		{object}	ScanResponse
//	@Failure		400		{object}	Error
//	@Failure		500		{object}	Error
//	@Router			/scan [post]
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())

		return
	}

	normalized, err := urlutil.Normalize(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidURL, ErrURLRequired.Error())

		return
	}

	record, err := h.store.UpsertURL(r.Context(), req.URL, normalized)
	if err != nil {
		log.Error().Err(err).Str("url", normalized).Msg("url upsert failed")
		writeError(w, http.StatusInternalServerError, errCodeStorage, "scan failed")

		return
	}

	intelHit, err := h.refreshIntelHit(r.Context(), record, normalized)
	if err != nil {
		log.Warn().Err(err).Str("url", normalized).Msg("intel refresh failed")
	}

	reportCount, err := h.store.CountReports(r.Context(), record.ID)
	if err != nil {
		log.Error().Err(err).Str("url", normalized).Msg("report count failed")
		writeError(w, http.StatusInternalServerError, errCodeStorage, "scan failed")

		return
	}

	// lexical checks look at the URL as submitted; normalization strips the
	// very features some of them flag
	reasons := heuristics.Evaluate(req.URL)

	writeJSON(w, http.StatusOK, ScanResponse{
		Verdict:     heuristics.Verdict(reasons, intelHit, reportCount),
		Reasons:     reasons,
		ReportCount: reportCount,
	})
}

// refreshIntelHit returns whether a Safe Browsing hit is on record, querying
// the provider for URLs we have not flagged yet.
func (h *Handler) refreshIntelHit(ctx context.Context, record store.URLRecord, normalized string) (bool, error) {
	hit, err := h.store.HasIntelHit(ctx, record.ID, intelProviderSafeBrowsing)
	if err != nil || hit {
		return hit, err
	}

	if h.intel == nil {
		return false, nil
	}

	host := urlutil.Hostname(normalized)
	result := h.intel.Analyze(ctx, providers.Target{
		URL:    normalized,
		Host:   host,
		Domain: urlutil.RegistrableDomain(host),
	})

	matches, ok := result.Data.(providers.ThreatMatches)
	if result.Status != providers.StatusOK || !ok || matches.Matches == 0 {
		return false, nil
	}

	if err := h.store.RecordIntelHit(ctx, record.ID, intelProviderSafeBrowsing, heuristics.VerdictWarning); err != nil {
		return true, err
	}

	return true, nil
}

// ReportRequest represents a community report submission
type ReportRequest struct {
	URL    string `json:"url" example:"https://example.com/"`
	Reason string `json:"reason,omitempty" example:"asked for my bank password"`
}

// ReportResponse acknowledges a stored community report
type ReportResponse struct {
	ReportCount int `json:"report_count"`
}

// handleReport stores a community report against a URL
//
//	@Summary		Report URL
//	@Description	Records a community report that feeds the quick-scan verdict
//	@Tags			report
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReportRequest	true	"URL and optional reason"
//	@Success		201		{object}	ReportResponse
//	@Failure		400		{object}	Error
//	@Failure		500		{object}	Error
//	@Router			/report-url [post]
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidRequest, ErrInvalidRequestBody.Error())

		return
	}

	normalized, err := urlutil.Normalize(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, errCodeInvalidURL, ErrURLRequired.Error())

		return
	}

	record, err := h.store.UpsertURL(r.Context(), req.URL, normalized)
	if err != nil {
		log.Error().Err(err).Str("url", normalized).Msg("url upsert failed")
		writeError(w, http.StatusInternalServerError, errCodeStorage, "report failed")

		return
	}

	if err := h.store.CreateReport(r.Context(), record.ID, req.Reason); err != nil {
		log.Error().Err(err).Str("url", normalized).Msg("report insert failed")
		writeError(w, http.StatusInternalServerError, errCodeStorage, "report failed")

		return
	}

	count, err := h.store.CountReports(r.Context(), record.ID)
	if err != nil {
		log.Warn().Err(err).Str("url", normalized).Msg("report count failed")
	}

	writeJSON(w, http.StatusCreated, ReportResponse{ReportCount: count})
}
