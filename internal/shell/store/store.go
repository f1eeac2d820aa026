package store

import (
	"context"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for the inventory collections:
// catalog, conversions, pallet locations, the breaker ledger and the singular
// settings record. Every write fully replaces the targeted record; readers
// always see the latest committed state.
type Store interface {
	// Catalog operations. ReplaceCatalog discards the existing catalog.
	ReplaceCatalog(ctx context.Context, items []domain.CatalogItem) error
	GetCatalogItem(ctx context.Context, itemNo string) (*domain.CatalogItem, error)
	SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error)
	ListCatalog(ctx context.Context) ([]domain.CatalogItem, error)

	// Conversion registry operations. GetFactor returns ErrNotFound when the
	// item has no factor yet.
	GetFactor(ctx context.Context, itemNo string) (int, error)
	PutFactor(ctx context.Context, itemNo string, factor int) error
	DeleteFactor(ctx context.Context, itemNo string) error
	ListFactors(ctx context.Context) ([]domain.ConversionEntry, error)
	ReplaceFactors(ctx context.Context, entries []domain.ConversionEntry) error

	// Pallet location operations. SavePallet is a full last-write-wins
	// overwrite of the record, history included.
	GetPallet(ctx context.Context, pallet int) (*domain.PalletRecord, error)
	SavePallet(ctx context.Context, rec *domain.PalletRecord) error
	DeletePallet(ctx context.Context, pallet int) error
	ListPallets(ctx context.Context) ([]domain.PalletRecord, error)
	ReplacePallets(ctx context.Context, recs []domain.PalletRecord) error

	// Breaker ledger operations. The ledger is append-only; AppendBreaker
	// assigns and returns the sequence identity.
	AppendBreaker(ctx context.Context, entry domain.BreakerEntry) (int64, error)
	BreakersBetween(ctx context.Context, fromIso, toIso string) ([]domain.BreakerEntry, error)
	RecentBreakers(ctx context.Context, limit int) ([]domain.BreakerEntry, error)
	SumBreakerUnits(ctx context.Context, itemNo string) (map[domain.Category]int64, error)
	ListBreakers(ctx context.Context) ([]domain.BreakerEntry, error)
	ReplaceBreakers(ctx context.Context, entries []domain.BreakerEntry) error

	// Settings operations. SetPalletCount is write-once and returns
	// ErrAlreadySet on a second attempt; RestoreSettings is the destructive
	// overwrite used only by backup restore.
	GetSettings(ctx context.Context) (domain.Settings, error)
	SetPalletCount(ctx context.Context, n int) error
	SetAdminDigest(ctx context.Context, digest string) error
	RestoreSettings(ctx context.Context, s domain.Settings) error

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}
