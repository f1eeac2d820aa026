package api

import (
	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/engine"
)

// =============================================================================
// Request Types
// =============================================================================

// ImportCatalogRequest carries raw catalog rows, one slice of cells per row.
type ImportCatalogRequest struct {
	Rows [][]string `json:"rows"`
}

// SavePalletRequest is the full-overwrite payload for a pallet location.
type SavePalletRequest struct {
	Lines   []domain.LineItem `json:"lines"`
	SavedBy string            `json:"savedBy"`
}

// SupplyFactorRequest carries operator input for a needs-input factor.
type SupplyFactorRequest struct {
	Factor string `json:"factor"`
}

// SetFactorRequest overwrites a conversion factor and triggers the cascade.
type SetFactorRequest struct {
	Factor int `json:"factor"`
}

// RecordBreakageRequest appends one ledger entry.
type RecordBreakageRequest struct {
	ItemNo      string `json:"itemNo"`
	Description string `json:"description,omitempty"`
	Units       int64  `json:"units"`
	Category    string `json:"category"`
	Employee    string `json:"employee"`
	When        string `json:"when"`
}

// ReconcileRequest sets absolute per-category totals for one item.
type ReconcileRequest struct {
	Desired  map[string]int64 `json:"desired"`
	Employee string           `json:"employee"`
	When     string           `json:"when,omitempty"`
}

// SetPalletCountRequest is the write-once pallet count.
type SetPalletCountRequest struct {
	Count int `json:"count"`
}

// SetCredentialRequest replaces the admin credential.
type SetCredentialRequest struct {
	Credential string `json:"credential"`
}

// UnlockRequest checks a credential against the stored digest.
type UnlockRequest struct {
	Credential string `json:"credential"`
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ImportCatalogResponse reports how many rows survived the import filter.
type ImportCatalogResponse struct {
	Imported int `json:"imported"`
}

// PalletResponse is the line list for one pallet.
type PalletResponse struct {
	Pallet int               `json:"pallet"`
	Lines  []domain.LineItem `json:"lines"`
}

// HistoryResponse is a pallet's recent save history, newest first.
type HistoryResponse struct {
	Pallet  int                   `json:"pallet"`
	Entries []domain.HistoryEntry `json:"entries"`
}

// CascadeResponse reports the effect of a factor overwrite.
type CascadeResponse struct {
	ItemNo         string `json:"itemNo"`
	Factor         int    `json:"factor"`
	PalletsScanned int    `json:"palletsScanned"`
	PalletsUpdated int    `json:"palletsUpdated"`
	LinesUpdated   int    `json:"linesUpdated"`
}

// BreakageResponse acknowledges an appended ledger entry.
type BreakageResponse struct {
	Seq int64 `json:"seq"`
}

// ReconcileResponse lists the delta entries a reconciliation appended.
type ReconcileResponse struct {
	NoChange bool                  `json:"noChange"`
	Applied  []domain.BreakerEntry `json:"applied"`
}

// UnlockResponse reports whether the credential matched.
type UnlockResponse struct {
	Unlocked bool `json:"unlocked"`
}

// SettingsResponse exposes non-secret settings.
type SettingsResponse struct {
	PalletCount *int `json:"palletCount"`
	HasAdmin    bool `json:"hasAdmin"`
}

// factorResolutionResponse aliases the engine type for the GET factor route.
type factorResolutionResponse = engine.FactorResolution
