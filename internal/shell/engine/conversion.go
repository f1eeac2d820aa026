package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/session"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
)

// =============================================================================
// Factor Resolution (request/response protocol)
// =============================================================================

// FactorResolution is the answer to a factor lookup. When NeedsInput is set
// the registry has no factor for the item yet and the caller must obtain one
// from the operator and submit it via SupplyFactor.
type FactorResolution struct {
	ItemNo     string `json:"itemNo"`
	Factor     int    `json:"factor,omitempty"`
	NeedsInput bool   `json:"needsInput,omitempty"`
}

// ResolveFactor looks up the conversion factor for an item. A missing factor
// is not an error; it is reported as a needs-input resolution carrying the
// item number.
func (e *Engine) ResolveFactor(ctx context.Context, itemNo string) (FactorResolution, error) {
	f, err := e.store.GetFactor(ctx, itemNo)
	if errors.Is(err, store.ErrNotFound) {
		return FactorResolution{ItemNo: itemNo, NeedsInput: true}, nil
	}
	if err != nil {
		return FactorResolution{}, err
	}
	return FactorResolution{ItemNo: itemNo, Factor: f}, nil
}

// SupplyFactor submits operator input for an item whose factor was reported
// as needs-input. This is the only path that creates a conversion entry: if a
// factor already exists it is returned untouched, since overwrites must go
// through SetConversionFactor and its cascade. Input that is not an integer
// >= 1 is rejected with domain.ErrInvalidFactor so the caller re-prompts.
func (e *Engine) SupplyFactor(ctx context.Context, itemNo, raw string) (int, error) {
	if existing, err := e.store.GetFactor(ctx, itemNo); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	factor, err := domain.ParseFactor(raw)
	if err != nil {
		return 0, err
	}

	if err := e.store.PutFactor(ctx, itemNo, factor); err != nil {
		return 0, err
	}

	e.logger.Info("conversion factor created", "item", itemNo, "factor", factor)
	return factor, nil
}

// EnsureFactor is the blocking convenience form of the resolve/supply
// protocol: it re-prompts until the operator supplies a valid factor.
func (e *Engine) EnsureFactor(ctx context.Context, itemNo string, prompter Prompter) (int, error) {
	res, err := e.ResolveFactor(ctx, itemNo)
	if err != nil {
		return 0, err
	}
	if !res.NeedsInput {
		return res.Factor, nil
	}

	for {
		raw, err := prompter.Prompt(ctx, fmt.Sprintf("units per case for item %s", itemNo))
		if err != nil {
			return 0, err
		}
		factor, err := e.SupplyFactor(ctx, itemNo, raw)
		if errors.Is(err, domain.ErrInvalidFactor) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return factor, nil
	}
}

// DeleteFactor removes an item's conversion entry, forcing the next
// resolution to re-prompt the operator.
func (e *Engine) DeleteFactor(ctx context.Context, itemNo string) error {
	return e.store.DeleteFactor(ctx, itemNo)
}

// =============================================================================
// Admin Factor Change + Cascade
// =============================================================================

// CascadeResult reports what a conversion-factor cascade touched.
type CascadeResult struct {
	PalletsScanned int `json:"palletsScanned"`
	PalletsUpdated int `json:"palletsUpdated"`
	LinesUpdated   int `json:"linesUpdated"`
	SessionLines   int `json:"sessionLines"`
}

// SetConversionFactor overwrites an item's conversion factor and propagates
// the change to every saved pallet line for that item, then to any unsaved
// lines in the given session (which are marked as updated this session).
// Overwriting is an admin operation and requires an admin-unlocked session;
// first-time creation stays on the SupplyFactor path.
//
// The registry write and the cascade are two separate persistence operations,
// not one atomic unit: a reader could briefly observe the new factor in the
// registry while old factors remain on pallet lines. The cascade is issued
// immediately after the registry write with no suspension point in between,
// which bounds the window; the ledger and catalog are unaffected by it.
func (e *Engine) SetConversionFactor(ctx context.Context, sess *session.Session, itemNo string, factor int) (CascadeResult, error) {
	if sess == nil || !sess.AdminUnlocked {
		return CascadeResult{}, ErrAdminLocked
	}
	if err := domain.ValidateFactor(factor); err != nil {
		return CascadeResult{}, err
	}

	if err := e.store.PutFactor(ctx, itemNo, factor); err != nil {
		return CascadeResult{}, err
	}

	res, err := e.cascade(ctx, itemNo, factor)
	if err != nil {
		return res, err
	}

	res.SessionLines = sess.ApplyFactor(itemNo, factor)

	e.logger.Info("conversion factor changed",
		"item", itemNo,
		"factor", factor,
		"pallets_updated", res.PalletsUpdated,
		"lines_updated", res.LinesUpdated,
	)
	return res, nil
}

// cascade rewrites every saved line referencing the item. It is a full-store
// scan, O(total line items); it patches only the BPC/Units fields of matching
// lines and writes back only records that changed. A secondary item-to-pallet
// index would avoid the scan if this ever runs hot, but the scan is the
// reference behavior at this scale.
func (e *Engine) cascade(ctx context.Context, itemNo string, factor int) (CascadeResult, error) {
	recs, err := e.store.ListPallets(ctx)
	if err != nil {
		return CascadeResult{}, err
	}

	res := CascadeResult{PalletsScanned: len(recs)}
	for i := range recs {
		changed := 0
		for j := range recs[i].Items {
			if recs[i].Items[j].ItemNo != itemNo {
				continue
			}
			if recs[i].Items[j].ApplyFactor(factor) {
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		// Write back as-is: savedBy, savedAt and history are preserved, a
		// cascade is not an operator save.
		if err := e.store.SavePallet(ctx, &recs[i]); err != nil {
			return res, err
		}
		res.PalletsUpdated++
		res.LinesUpdated += changed
	}
	return res, nil
}
