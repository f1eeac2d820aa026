package engine

import (
	"context"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
)

// =============================================================================
// Backup Document
// =============================================================================

// Document is the backup/restore serialization contract: one JSON document
// carrying every collection. Breakers is optional; a document without it
// leaves restore of the ledger to an empty state all the same, since restore
// is a full overwrite, not a merge.
type Document struct {
	Config    documentConfig           `json:"config"`
	Catalog   []domain.CatalogItem     `json:"catalog"`
	Locations []domain.PalletRecord    `json:"locations"`
	BPC       []domain.ConversionEntry `json:"bpc"`
	Breakers  []domain.BreakerEntry    `json:"breakers,omitempty"`
}

type documentConfig struct {
	PalletCount *int   `json:"palletCount,omitempty"`
	AdminDigest string `json:"adminDigest,omitempty"`
}

// =============================================================================
// Export / Restore
// =============================================================================

// Export assembles the backup document from the current contents of every
// collection.
func (e *Engine) Export(ctx context.Context) (*Document, error) {
	settings, err := e.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := e.store.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := e.store.ListPallets(ctx)
	if err != nil {
		return nil, err
	}
	factors, err := e.store.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	breakers, err := e.store.ListBreakers(ctx)
	if err != nil {
		return nil, err
	}

	return &Document{
		Config:    documentConfig{PalletCount: settings.PalletCount, AdminDigest: settings.AdminDigest},
		Catalog:   catalog,
		Locations: locations,
		BPC:       factors,
		Breakers:  breakers,
	}, nil
}

// Restore replaces the entire contents of every collection with the
// document's contents. This is a destructive full overwrite, not a merge,
// performed in a single transaction.
func (e *Engine) Restore(ctx context.Context, doc *Document) error {
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.ReplaceCatalog(ctx, doc.Catalog); err != nil {
			return err
		}
		if err := tx.ReplacePallets(ctx, doc.Locations); err != nil {
			return err
		}
		if err := tx.ReplaceFactors(ctx, doc.BPC); err != nil {
			return err
		}
		if err := tx.ReplaceBreakers(ctx, doc.Breakers); err != nil {
			return err
		}
		return tx.RestoreSettings(ctx, domain.Settings{
			PalletCount: doc.Config.PalletCount,
			AdminDigest: doc.Config.AdminDigest,
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("backup restored",
		"catalog", len(doc.Catalog),
		"locations", len(doc.Locations),
		"factors", len(doc.BPC),
		"breakers", len(doc.Breakers),
	)
	return nil
}
