package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/engine"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	h := NewHandler(engine.New(s, nil), nil)
	return h, h.Routes()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// =============================================================================
// Health
// =============================================================================

func TestHealthEndpoints(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadyResponse](t, rec)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["database"])
}

// =============================================================================
// Catalog
// =============================================================================

func TestImportAndSearchCatalog(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/catalog/import", ImportCatalogRequest{
		Rows: [][]string{
			{"X100", "Widget 12pk", "12/1ct", "2.50", "Acme", "J. Reyes"},
			{"bad"},
			{"Y200", "Gadget tray", "6/1ct", "", "Globex", "M. Ortiz"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ImportCatalogResponse](t, rec).Imported)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/search?q=widget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]domain.CatalogItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "X100", items[0].ItemNo)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.CatalogItem](t, rec), 2)
}

func TestImportCatalog_BadJSON(t *testing.T) {
	_, router := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// Pallets
// =============================================================================

func TestSaveAndLoadPallet(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/pallets/3/", SavePalletRequest{
		Lines:   []domain.LineItem{{ItemNo: "X100", Description: "Widget", BPC: 12, Cases: 3}},
		SavedBy: "maria",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[PalletResponse](t, rec)
	assert.Equal(t, 36.0, saved.Lines[0].Units)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/pallets/3/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[PalletResponse](t, rec)
	assert.Equal(t, saved.Lines, got.Lines)
}

func TestGetPallet_EmptyNotError(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/pallets/99/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[PalletResponse](t, rec).Lines)
}

func TestPalletParam_Invalid(t *testing.T) {
	_, router := setupTestHandler(t)

	for _, path := range []string{"/api/v1/pallets/zero/", "/api/v1/pallets/-1/"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestClearPallet_NoContent(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/api/v1/pallets/3/", SavePalletRequest{
		Lines: []domain.LineItem{{ItemNo: "X100", BPC: 12, Cases: 1}}, SavedBy: "maria",
	})
	rec := doJSON(t, router, http.MethodDelete, "/api/v1/pallets/3/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/pallets/3/", nil)
	assert.Empty(t, decode[PalletResponse](t, rec).Lines)
}

func TestPalletHistory(t *testing.T) {
	_, router := setupTestHandler(t)

	for i := 0; i < 2; i++ {
		doJSON(t, router, http.MethodPut, "/api/v1/pallets/3/", SavePalletRequest{
			Lines: []domain.LineItem{{ItemNo: "X100", BPC: 12, Cases: 1}}, SavedBy: "maria",
		})
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/pallets/3/history?window=1h", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[HistoryResponse](t, rec)
	assert.Len(t, hist.Entries, 2)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/pallets/3/history?window=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Factors
// =============================================================================

func TestFactorLifecycle(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/factors/X100/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[factorResolutionResponse](t, rec)
	assert.True(t, res.NeedsInput)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/factors/X100/", SupplyFactorRequest{Factor: "12"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 12, decode[factorResolutionResponse](t, rec).Factor)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/factors/X100/", nil)
	res = decode[factorResolutionResponse](t, rec)
	assert.False(t, res.NeedsInput)
	assert.Equal(t, 12, res.Factor)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/factors/X100/", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/factors/X100/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSupplyFactor_InvalidInput(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/factors/X100/", SupplyFactorRequest{Factor: "zero"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[ErrorResponse](t, rec).Code)
}

func TestSetFactor_RequiresAdmin(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/factors/X100/", SetFactorRequest{Factor: 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_locked", decode[ErrorResponse](t, rec).Code)
}

func TestSetFactor_ReportsCascade(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "s3cret"})
	doJSON(t, router, http.MethodPut, "/api/v1/pallets/1/", SavePalletRequest{
		Lines: []domain.LineItem{{ItemNo: "X100", BPC: 12, Cases: 3}}, SavedBy: "maria",
	})
	doJSON(t, router, http.MethodPut, "/api/v1/pallets/2/", SavePalletRequest{
		Lines: []domain.LineItem{{ItemNo: "Y200", BPC: 6, Cases: 2}}, SavedBy: "maria",
	})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/factors/X100/", SetFactorRequest{Factor: 10},
		adminHeader, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	cascade := decode[CascadeResponse](t, rec)
	assert.Equal(t, 2, cascade.PalletsScanned)
	assert.Equal(t, 1, cascade.PalletsUpdated)
	assert.Equal(t, 1, cascade.LinesUpdated)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/pallets/1/", nil)
	got := decode[PalletResponse](t, rec)
	assert.Equal(t, 30.0, got.Lines[0].Units)
}

// =============================================================================
// Breakage and Reconciliation
// =============================================================================

func TestRecordBreakage(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/breakage/", RecordBreakageRequest{
		ItemNo: "Y200", Units: 5, Category: "broken", Employee: "sam", When: "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decode[BreakageResponse](t, rec).Seq)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/breakage/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.BreakerEntry](t, rec), 1)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/breakage/?from=2026-03-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.BreakerEntry](t, rec), 1)
}

func TestRecordBreakage_Invalid(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/breakage/", RecordBreakageRequest{
		ItemNo: "Y200", Units: 0, Category: "broken", Employee: "sam", When: "2026-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryBreakage_RequiresRange(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/breakage/?from=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcile_RequiresAdmin(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/items/Y200/reconcile", ReconcileRequest{
		Desired: map[string]int64{"broken": 8}, Employee: "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin_locked", decode[ErrorResponse](t, rec).Code)
}

func TestReconcile_WithCredential(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "s3cret"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	doJSON(t, router, http.MethodPost, "/api/v1/breakage/", RecordBreakageRequest{
		ItemNo: "Y200", Units: 5, Category: "broken", Employee: "sam", When: "2026-03-01",
	})

	rec = doJSON(t, router, http.MethodPost, "/api/v1/items/Y200/reconcile", ReconcileRequest{
		Desired: map[string]int64{"broken": 8}, Employee: "admin", When: "2026-03-05",
	}, adminHeader, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReconcileResponse](t, rec)
	require.Len(t, resp.Applied, 1)
	assert.Equal(t, int64(3), resp.Applied[0].Units)

	// Same targets again come back as no change.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/items/Y200/reconcile", ReconcileRequest{
		Desired: map[string]int64{"broken": 8}, Employee: "admin", When: "2026-03-05",
	}, adminHeader, "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ReconcileResponse](t, rec).NoChange)
}

func TestReconcile_UnknownCategory(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "s3cret"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/items/Y200/reconcile", ReconcileRequest{
		Desired: map[string]int64{"shattered": 8}, Employee: "admin",
	}, adminHeader, "s3cret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBreakageReport(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPost, "/api/v1/catalog/import", ImportCatalogRequest{
		Rows: [][]string{{"X100", "Widget", "12/1ct", "2.50", "Acme", "J. Reyes"}},
	})
	doJSON(t, router, http.MethodPost, "/api/v1/breakage/", RecordBreakageRequest{
		ItemNo: "X100", Units: 4, Category: "broken", Employee: "sam", When: "2026-03-02",
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/reports/breakage?from=2026-03-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "\"broken\":4")
	assert.Contains(t, body, "Acme")
}

// =============================================================================
// Settings and Admin
// =============================================================================

func TestSetPalletCount_WriteOnce(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPut, "/api/v1/settings/pallet-count", SetPalletCountRequest{Count: 40})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/settings/pallet-count", SetPalletCountRequest{Count: 50})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_set", decode[ErrorResponse](t, rec).Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/settings/", nil)
	settings := decode[SettingsResponse](t, rec)
	require.NotNil(t, settings.PalletCount)
	assert.Equal(t, 40, *settings.PalletCount)
}

func TestSetCredential_ReplacementNeedsCurrent(t *testing.T) {
	_, router := setupTestHandler(t)

	// First credential is open to set.
	rec := doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "first"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Replacing without the current credential is refused.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "second"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "second"},
		adminHeader, "first")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnlock(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "s3cret"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/unlock", UnlockRequest{Credential: "wrong"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[UnlockResponse](t, rec).Unlocked)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/unlock", UnlockRequest{Credential: "s3cret"})
	assert.True(t, decode[UnlockResponse](t, rec).Unlocked)
}

// =============================================================================
// Backup
// =============================================================================

func TestExportRestore_OverHTTP(t *testing.T) {
	_, router := setupTestHandler(t)

	doJSON(t, router, http.MethodPost, "/api/v1/catalog/import", ImportCatalogRequest{
		Rows: [][]string{{"X100", "Widget", "12/1ct", "2.50", "Acme", "J. Reyes"}},
	})
	doJSON(t, router, http.MethodPost, "/api/v1/factors/X100/", SupplyFactorRequest{Factor: "12"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[engine.Document](t, rec)
	assert.Len(t, doc.Catalog, 1)
	assert.Len(t, doc.BPC, 1)

	// Restore into a second instance.
	_, router2 := setupTestHandler(t)
	doJSON(t, router2, http.MethodPut, "/api/v1/settings/credential", SetCredentialRequest{Credential: "s3cret"})

	rec = doJSON(t, router2, http.MethodPost, "/api/v1/restore", doc)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router2, http.MethodPost, "/api/v1/restore", doc, adminHeader, "s3cret")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router2, http.MethodGet, "/api/v1/factors/X100/", nil)
	assert.Equal(t, 12, decode[factorResolutionResponse](t, rec).Factor)
}
