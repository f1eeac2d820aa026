// Package api provides HTTP handlers for the pallet inventory API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/session"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/engine"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// adminHeader carries the admin credential for gated endpoints.
const adminHeader = "X-Admin-Credential"

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(e *engine.Engine, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{engine: e, logger: l}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.handleListCatalog)
			r.Get("/search", h.handleSearchCatalog)
			r.Post("/import", h.handleImportCatalog)
		})

		r.Route("/pallets/{pallet}", func(r chi.Router) {
			r.Get("/", h.handleGetPallet)
			r.Put("/", h.handleSavePallet)
			r.Delete("/", h.handleClearPallet)
			r.Get("/history", h.handlePalletHistory)
		})

		r.Route("/factors/{itemNo}", func(r chi.Router) {
			r.Get("/", h.handleResolveFactor)
			r.Post("/", h.handleSupplyFactor)
			r.Put("/", h.handleSetFactor)
			r.Delete("/", h.handleDeleteFactor)
		})

		r.Route("/breakage", func(r chi.Router) {
			r.Post("/", h.handleRecordBreakage)
			r.Get("/", h.handleQueryBreakage)
			r.Get("/recent", h.handleRecentBreakage)
		})

		r.Post("/items/{itemNo}/reconcile", h.handleReconcile)
		r.Get("/reports/breakage", h.handleBreakageReport)

		r.Get("/backup", h.handleExport)
		r.Post("/restore", h.handleRestore)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.handleGetSettings)
			r.Put("/pallet-count", h.handleSetPalletCount)
			r.Put("/credential", h.handleSetCredential)
		})
		r.Post("/unlock", h.handleUnlock)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.engine.Settings(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Catalog Handlers
// =============================================================================

func (h *Handler) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.Catalog(r.Context())
	if err != nil {
		h.logger.Error("failed to list catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list catalog", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleSearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			limit = l
		}
	}

	items, err := h.engine.SearchCatalog(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to search catalog", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleImportCatalog(w http.ResponseWriter, r *http.Request) {
	var req ImportCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	imported, err := h.engine.ImportCatalog(r.Context(), req.Rows)
	if err != nil {
		h.logger.Error("failed to import catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to import catalog", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, ImportCatalogResponse{Imported: imported})
}

// =============================================================================
// Pallet Handlers
// =============================================================================

func (h *Handler) handleGetPallet(w http.ResponseWriter, r *http.Request) {
	pallet, ok := h.palletParam(w, r)
	if !ok {
		return
	}

	lines, err := h.engine.LoadPallet(r.Context(), nil, pallet)
	if err != nil {
		h.logger.Error("failed to load pallet", "pallet", pallet, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load pallet", "internal_error")
		return
	}
	if lines == nil {
		lines = []domain.LineItem{}
	}
	h.writeJSON(w, http.StatusOK, PalletResponse{Pallet: pallet, Lines: lines})
}

func (h *Handler) handleSavePallet(w http.ResponseWriter, r *http.Request) {
	pallet, ok := h.palletParam(w, r)
	if !ok {
		return
	}

	var req SavePalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	rec, err := h.engine.SavePallet(r.Context(), pallet, req.Lines, req.SavedBy)
	if err != nil {
		h.writeDomainError(w, err, "failed to save pallet")
		return
	}
	h.writeJSON(w, http.StatusOK, PalletResponse{Pallet: pallet, Lines: rec.Items})
}

func (h *Handler) handleClearPallet(w http.ResponseWriter, r *http.Request) {
	pallet, ok := h.palletParam(w, r)
	if !ok {
		return
	}

	if err := h.engine.ClearPallet(r.Context(), pallet); err != nil {
		h.logger.Error("failed to clear pallet", "pallet", pallet, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to clear pallet", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePalletHistory(w http.ResponseWriter, r *http.Request) {
	pallet, ok := h.palletParam(w, r)
	if !ok {
		return
	}

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid window duration", "validation_error")
			return
		}
		window = d
	}

	entries, err := h.engine.RecentHistory(r.Context(), pallet, window)
	if err != nil {
		h.logger.Error("failed to load history", "pallet", pallet, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load history", "internal_error")
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, HistoryResponse{Pallet: pallet, Entries: entries})
}

// =============================================================================
// Factor Handlers
// =============================================================================

func (h *Handler) handleResolveFactor(w http.ResponseWriter, r *http.Request) {
	itemNo := chi.URLParam(r, "itemNo")

	res, err := h.engine.ResolveFactor(r.Context(), itemNo)
	if err != nil {
		h.logger.Error("failed to resolve factor", "item", itemNo, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to resolve factor", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, factorResolutionResponse(res))
}

func (h *Handler) handleSupplyFactor(w http.ResponseWriter, r *http.Request) {
	itemNo := chi.URLParam(r, "itemNo")

	var req SupplyFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	factor, err := h.engine.SupplyFactor(r.Context(), itemNo, req.Factor)
	if err != nil {
		h.writeDomainError(w, err, "failed to supply factor")
		return
	}
	h.writeJSON(w, http.StatusCreated, factorResolutionResponse{ItemNo: itemNo, Factor: factor})
}

func (h *Handler) handleSetFactor(w http.ResponseWriter, r *http.Request) {
	itemNo := chi.URLParam(r, "itemNo")

	sess, ok := h.adminSession(w, r)
	if !ok {
		return
	}

	var req SetFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	res, err := h.engine.SetConversionFactor(r.Context(), sess, itemNo, req.Factor)
	if err != nil {
		h.writeDomainError(w, err, "failed to set factor")
		return
	}
	h.writeJSON(w, http.StatusOK, CascadeResponse{
		ItemNo:         itemNo,
		Factor:         req.Factor,
		PalletsScanned: res.PalletsScanned,
		PalletsUpdated: res.PalletsUpdated,
		LinesUpdated:   res.LinesUpdated,
	})
}

func (h *Handler) handleDeleteFactor(w http.ResponseWriter, r *http.Request) {
	itemNo := chi.URLParam(r, "itemNo")

	err := h.engine.DeleteFactor(r.Context(), itemNo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "factor not found", "not_found")
			return
		}
		h.logger.Error("failed to delete factor", "item", itemNo, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete factor", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Breakage Handlers
// =============================================================================

func (h *Handler) handleRecordBreakage(w http.ResponseWriter, r *http.Request) {
	var req RecordBreakageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	seq, err := h.engine.RecordBreakage(r.Context(), domain.BreakerEntry{
		ItemNo:      req.ItemNo,
		Description: req.Description,
		Units:       req.Units,
		Category:    domain.Category(req.Category),
		Employee:    req.Employee,
		WhenIso:     req.When,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to record breakage")
		return
	}
	h.writeJSON(w, http.StatusCreated, BreakageResponse{Seq: seq})
}

func (h *Handler) handleQueryBreakage(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		h.writeError(w, http.StatusBadRequest, "from and to are required", "validation_error")
		return
	}

	entries, err := h.engine.QueryBreakage(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to query breakage", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to query breakage", "internal_error")
		return
	}
	if entries == nil {
		entries = []domain.BreakerEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleRecentBreakage(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.engine.RecentBreakage(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list recent breakage", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list recent breakage", "internal_error")
		return
	}
	if entries == nil {
		entries = []domain.BreakerEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// Reconciliation and Reporting Handlers
// =============================================================================

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	itemNo := chi.URLParam(r, "itemNo")

	sess, ok := h.adminSession(w, r)
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	desired := make(map[domain.Category]int64, len(req.Desired))
	for k, v := range req.Desired {
		c := domain.Category(k)
		if !c.IsValid() {
			h.writeError(w, http.StatusBadRequest, "unknown category "+k, "validation_error")
			return
		}
		desired[c] = v
	}

	// An empty When dates the entries today, by the engine clock.
	rec, err := h.engine.ReconcileTotals(r.Context(), sess, itemNo, desired, req.Employee, req.When)
	if err != nil {
		h.writeDomainError(w, err, "failed to reconcile totals")
		return
	}
	if rec.Applied == nil {
		rec.Applied = []domain.BreakerEntry{}
	}
	h.writeJSON(w, http.StatusOK, ReconcileResponse{NoChange: rec.NoChange, Applied: rec.Applied})
}

func (h *Handler) handleBreakageReport(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		h.writeError(w, http.StatusBadRequest, "from and to are required", "validation_error")
		return
	}

	rep, err := h.engine.BreakageReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to build report", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to build report", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

// =============================================================================
// Backup Handlers
// =============================================================================

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.Export(r.Context())
	if err != nil {
		h.logger.Error("failed to export", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to export", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminSession(w, r); !ok {
		return
	}

	var doc engine.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if err := h.engine.Restore(r.Context(), &doc); err != nil {
		h.logger.Error("failed to restore", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to restore", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Settings Handlers
// =============================================================================

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.engine.Settings(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load settings", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, SettingsResponse{
		PalletCount: settings.PalletCount,
		HasAdmin:    settings.AdminDigest != "",
	})
}

func (h *Handler) handleSetPalletCount(w http.ResponseWriter, r *http.Request) {
	var req SetPalletCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	err := h.engine.SetPalletCount(r.Context(), req.Count)
	if err != nil {
		if errors.Is(err, store.ErrAlreadySet) {
			h.writeError(w, http.StatusConflict, "pallet count already set", "already_set")
			return
		}
		h.writeDomainError(w, err, "failed to set pallet count")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	// Once a credential exists, replacing it requires the current one.
	settings, err := h.engine.Settings(r.Context())
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load settings", "internal_error")
		return
	}
	if settings.AdminDigest != "" {
		if _, ok := h.adminSession(w, r); !ok {
			return
		}
	}

	var req SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Credential == "" {
		h.writeError(w, http.StatusBadRequest, "credential is required", "validation_error")
		return
	}

	if err := h.engine.SetAdminCredential(r.Context(), req.Credential); err != nil {
		h.logger.Error("failed to set credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to set credential", "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	ok, err := h.engine.CheckAdminCredential(r.Context(), req.Credential)
	if err != nil {
		h.logger.Error("failed to check credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to check credential", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, UnlockResponse{Unlocked: ok})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) palletParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "pallet")
	pallet, err := strconv.Atoi(raw)
	if err != nil || pallet < 1 {
		h.writeError(w, http.StatusBadRequest, "invalid pallet number", "validation_error")
		return 0, false
	}
	return pallet, true
}

// adminSession checks the admin credential header and returns an unlocked
// session for the request. Writes a 403 and returns false when the check
// fails.
func (h *Handler) adminSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	ok, err := h.engine.CheckAdminCredential(r.Context(), r.Header.Get(adminHeader))
	if err != nil {
		h.logger.Error("failed to check credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to check credential", "internal_error")
		return nil, false
	}
	if !ok {
		h.writeError(w, http.StatusForbidden, "admin credential required", "admin_locked")
		return nil, false
	}
	sess := session.New()
	sess.AdminUnlocked = true
	return sess, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeDomainError maps store sentinels and validation errors onto HTTP
// statuses; anything unrecognized is a 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found", "not_found")
	case errors.Is(err, store.ErrAlreadySet):
		h.writeError(w, http.StatusConflict, "already set", "already_set")
	case errors.Is(err, engine.ErrAdminLocked):
		h.writeError(w, http.StatusForbidden, "admin credential required", "admin_locked")
	case errors.Is(err, domain.ErrInvalidFactor),
		errors.Is(err, domain.ErrBadPallet),
		errors.Is(err, domain.ErrItemNoRequired),
		errors.Is(err, domain.ErrZeroUnits),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, store.ErrInvalidEntry):
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
	default:
		h.logger.Error(fallback, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback, "internal_error")
	}
}
