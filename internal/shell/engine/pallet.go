package engine

import (
	"context"
	"errors"
	"time"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/session"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
)

// LoadPallet returns the current line list for a pallet, empty if nothing
// was ever saved there. When a session is given it switches to the pallet,
// clearing any pending cascade markers.
func (e *Engine) LoadPallet(ctx context.Context, sess *session.Session, pallet int) ([]domain.LineItem, error) {
	rec, err := e.store.GetPallet(ctx, pallet)
	if errors.Is(err, store.ErrNotFound) {
		if sess != nil {
			sess.LoadPallet(pallet, nil)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.LoadPallet(pallet, rec.Items)
	}
	return rec.Items, nil
}

// SavePallet fully overwrites a pallet's contents, last-write-wins. Every
// line is recomputed so Units == BPC * Cases holds after the write; the save
// is stamped and appended to the bounded history.
func (e *Engine) SavePallet(ctx context.Context, pallet int, lines []domain.LineItem, savedBy string) (*domain.PalletRecord, error) {
	rec, err := e.store.GetPallet(ctx, pallet)
	if errors.Is(err, store.ErrNotFound) {
		rec = &domain.PalletRecord{Pallet: pallet}
	} else if err != nil {
		return nil, err
	}

	rec.Items = append([]domain.LineItem(nil), lines...)
	rec.RecomputeLines()
	rec.Stamp(savedBy, e.now().UTC())

	if err := e.store.SavePallet(ctx, rec); err != nil {
		return nil, err
	}

	e.logger.Info("pallet saved", "pallet", pallet, "lines", len(rec.Items), "saved_by", savedBy)
	return rec, nil
}

// ClearPallet deletes the pallet record entirely, history included. Clearing
// an unknown pallet is a no-op.
func (e *Engine) ClearPallet(ctx context.Context, pallet int) error {
	err := e.store.DeletePallet(ctx, pallet)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// RecentHistory returns the save-history entries for a pallet within the
// trailing window, newest first.
func (e *Engine) RecentHistory(ctx context.Context, pallet int, window time.Duration) ([]domain.HistoryEntry, error) {
	rec, err := e.store.GetPallet(ctx, pallet)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.History.Recent(window, e.now().UTC()), nil
}
