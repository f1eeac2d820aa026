package engine

import (
	"context"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
)

// ImportCatalog replaces the whole catalog with the given raw rows. Rows
// failing the minimal shape check are skipped silently and excluded from the
// returned imported count; this is a deliberate best-effort policy, not a
// failure.
func (e *Engine) ImportCatalog(ctx context.Context, rows [][]string) (int, error) {
	items := make([]domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		item, ok := domain.CatalogItemFromRow(row)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	if err := e.store.ReplaceCatalog(ctx, items); err != nil {
		return 0, err
	}

	e.logger.Info("catalog imported", "rows", len(rows), "imported", len(items))
	return len(items), nil
}

// SearchCatalog is a case-insensitive substring search over descriptions,
// returning at most limit matches in stable order.
func (e *Engine) SearchCatalog(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	return e.store.SearchCatalog(ctx, query, limit)
}

// Catalog returns the full catalog.
func (e *Engine) Catalog(ctx context.Context) ([]domain.CatalogItem, error) {
	return e.store.ListCatalog(ctx)
}
