package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/eod"
	"github.com/RSKPixel/wealth/internal/export"
	"github.com/RSKPixel/wealth/internal/ingest"
	"github.com/RSKPixel/wealth/internal/ledger"
	"github.com/RSKPixel/wealth/internal/portfolio"
)

// StatementService parses statements and reads back stored transactions.
type StatementService interface {
	Process(ctx context.Context, u ingest.Upload) (ingest.Result, error)
	Transactions(ctx context.Context, clientPAN string) ([]ledger.Row, error)
}

// EODService runs the end-of-day NAV job and serves stored NAVs.
type EODService interface {
	FetchAndStore(ctx context.Context) (int, error)
	LatestNAV(ctx context.Context, isin string) (eod.NAV, error)
}

// HoldingsService values a client's open positions.
type HoldingsService interface {
	Summary(ctx context.Context, clientPAN string) (portfolio.Summary, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP endpoints for the wealth API.
type Handler struct {
	statements     StatementService
	refs           ingest.ReferenceSource
	eod            EODService
	db             Pinger
	holdings       HoldingsService
	maxUploadBytes int64
}

// NewHandler creates a new API handler. eod and db may be nil.
func NewHandler(statements StatementService, refs ingest.ReferenceSource, navs EODService, db Pinger, maxUploadBytes int64) *Handler {
	return &Handler{
		statements:     statements,
		refs:           refs,
		eod:            navs,
		db:             db,
		maxUploadBytes: maxUploadBytes,
	}
}

// WithHoldings enables the holdings endpoint.
func (h *Handler) WithHoldings(holdings HoldingsService) *Handler {
	h.holdings = holdings
	return h
}

// UploadStatement handles POST /api/v1/statements/upload.
func (h *Handler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	tooLarge := ingest.Failure(fmt.Errorf("file exceeds %d bytes", h.maxUploadBytes))
	if r.ContentLength > h.maxUploadBytes {
		writeResult(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeResult(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		writeResult(w, http.StatusBadRequest, ingest.Failure(errors.New("invalid multipart form")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeResult(w, http.StatusBadRequest, ingest.Failure(errors.New("file is required")))
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		slog.Error("failed to read uploaded file", "filename", header.Filename, "error", err)
		writeResult(w, http.StatusBadRequest, ingest.Failure(errors.New("could not read uploaded file")))
		return
	}

	upload := ingest.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Document:    doc,
		Password:    r.FormValue("password"),
		ClientPAN:   r.FormValue("pan"),
	}

	res, err := h.statements.Process(r.Context(), upload)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to process statement", "filename", upload.Filename, "error", err)
			res = ingest.Failure(errors.New("failed to store transactions"))
		}
		writeResult(w, status, res)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		writeXLSX(w, res)
		return
	}
	writeResult(w, http.StatusOK, res)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrMissingPAN),
		errors.Is(err, ingest.ErrUnsupportedType),
		errors.Is(err, ingest.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListTransactions handles GET /api/v1/transactions?pan=.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	pan := strings.TrimSpace(r.URL.Query().Get("pan"))
	if pan == "" {
		writeError(w, http.StatusBadRequest, "pan query parameter is required")
		return
	}

	rows, err := h.statements.Transactions(r.Context(), pan)
	if err != nil {
		slog.Error("failed to list transactions", "pan", pan, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []ledger.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetHoldings handles GET /api/v1/holdings?pan=.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	if h.holdings == nil {
		writeError(w, http.StatusServiceUnavailable, "holdings are not configured")
		return
	}
	pan := strings.TrimSpace(r.URL.Query().Get("pan"))
	if pan == "" {
		writeError(w, http.StatusBadRequest, "pan query parameter is required")
		return
	}

	summary, err := h.holdings.Summary(r.Context(), pan)
	if err != nil {
		slog.Error("failed to summarize holdings", "pan", pan, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// navResponse is the resolved view of one ISIN.
type navResponse struct {
	ISIN       string `json:"isin"`
	SchemeCode string `json:"scheme_code,omitempty"`
	FundName   string `json:"fund_name"`
	AMCName    string `json:"amc_name"`
	NAV        string `json:"nav"`
	NAVDate    string `json:"nav_date,omitempty"`
	Source     string `json:"source"`
}

// GetNAV handles GET /api/v1/mutualfund/nav/{isin}.
// The live reference is consulted first, then the stored end-of-day NAVs.
func (h *Handler) GetNAV(w http.ResponseWriter, r *http.Request) {
	isin := strings.ToUpper(strings.TrimSpace(r.PathValue("isin")))

	if ref := h.reference(r.Context()); ref != nil {
		if rec, ok := ref.Lookup(isin); ok {
			res, _ := ref.Resolve(isin)
			writeJSON(w, http.StatusOK, navResponse{
				ISIN:       isin,
				SchemeCode: rec.SchemeCode,
				FundName:   res.FundName,
				AMCName:    res.AMCName,
				NAV:        res.NAV,
				NAVDate:    rec.NAVDate,
				Source:     "reference",
			})
			return
		}
	}

	if h.eod != nil {
		nav, err := h.eod.LatestNAV(r.Context(), isin)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, navResponse{
				ISIN:       isin,
				SchemeCode: nav.SchemeCode,
				FundName:   amfi.CleanFundName(nav.SchemeName),
				AMCName:    nav.AMCName,
				NAV:        nav.NAV.String(),
				NAVDate:    nav.Date.Format(time.DateOnly),
				Source:     "eod",
			})
			return
		case !errors.Is(err, eod.ErrNotFound):
			slog.Error("failed to get stored NAV", "isin", isin, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	writeError(w, http.StatusNotFound, "isin not found")
}

func (h *Handler) reference(ctx context.Context) *amfi.Reference {
	if h.refs == nil {
		return nil
	}
	return h.refs.Reference(ctx)
}

// RunEOD handles POST /api/v1/mutualfund/eod.
func (h *Handler) RunEOD(w http.ResponseWriter, r *http.Request) {
	if h.eod == nil {
		writeError(w, http.StatusServiceUnavailable, "end-of-day storage is not configured")
		return
	}
	n, err := h.eod.FetchAndStore(r.Context())
	if err != nil {
		slog.Error("failed to run end-of-day NAV job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch NAVs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": ingest.StatusSuccess, "stored": n})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("health check: database unreachable", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeXLSX(w http.ResponseWriter, res ingest.Result) {
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_transactions.xlsx"`, res.ClientPAN))
	if err := export.WriteXLSX(w, res.Data); err != nil {
		slog.Error("failed to write xlsx response", "pan", res.ClientPAN, "error", err)
	}
}

func writeResult(w http.ResponseWriter, status int, res ingest.Result) {
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
