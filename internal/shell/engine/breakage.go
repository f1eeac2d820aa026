package engine

import (
	"context"
	"errors"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/reconcile"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/report"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/session"
	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
)

// ErrAdminLocked is returned when an operation needs the admin capability and
// the session is not unlocked.
var ErrAdminLocked = errors.New("admin capability required")

// =============================================================================
// Ledger Writes
// =============================================================================

// RecordBreakage appends one immutable entry to the breaker ledger and
// returns its assigned sequence. An empty description is filled from the
// catalog when the item is known.
func (e *Engine) RecordBreakage(ctx context.Context, entry domain.BreakerEntry) (int64, error) {
	if entry.Description == "" {
		if item, err := e.store.GetCatalogItem(ctx, entry.ItemNo); err == nil {
			entry.Description = item.Description
		}
	}

	seq, err := e.store.AppendBreaker(ctx, entry)
	if err != nil {
		return 0, err
	}

	e.logger.Info("breakage recorded",
		"seq", seq,
		"item", entry.ItemNo,
		"category", string(entry.Category),
		"units", entry.Units,
	)
	return seq, nil
}

// RecentBreakage returns the most recently appended entries, newest first.
func (e *Engine) RecentBreakage(ctx context.Context, limit int) ([]domain.BreakerEntry, error) {
	return e.store.RecentBreakers(ctx, limit)
}

// QueryBreakage returns ledger entries within the inclusive day-granularity
// range, newest first.
func (e *Engine) QueryBreakage(ctx context.Context, fromIso, toIso string) ([]domain.BreakerEntry, error) {
	return e.store.BreakersBetween(ctx, fromIso, toIso)
}

// =============================================================================
// Reconciliation
// =============================================================================

// Reconciliation is the outcome of a set-absolute-totals operation. NoChange
// distinguishes the all-deltas-zero no-op from a successful write; Applied
// lists the delta entries appended, in category order.
type Reconciliation struct {
	ItemNo   string               `json:"itemNo"`
	NoChange bool                 `json:"noChange"`
	Applied  []domain.BreakerEntry `json:"applied,omitempty"`
}

// ReconcileTotals converts admin-entered absolute per-category totals for an
// item into signed delta entries appended to the ledger. Totals remain the
// sum of all entries ever appended; history is never rewritten. Requires an
// admin-unlocked session. An empty whenIso dates the entries today, by the
// engine clock. The delta entries are appended in one store transaction so a
// partial reconciliation is never observable.
func (e *Engine) ReconcileTotals(ctx context.Context, sess *session.Session, itemNo string, desired map[domain.Category]int64, employee, whenIso string) (Reconciliation, error) {
	if sess == nil || !sess.AdminUnlocked {
		return Reconciliation{}, ErrAdminLocked
	}
	if whenIso == "" {
		whenIso = domain.Day(e.now())
	}

	current, err := e.store.SumBreakerUnits(ctx, itemNo)
	if err != nil {
		return Reconciliation{}, err
	}

	deltas := reconcile.Deltas(current, desired)
	if len(deltas) == 0 {
		e.logger.Info("reconciliation no-op", "item", itemNo)
		return Reconciliation{ItemNo: itemNo, NoChange: true}, nil
	}

	description := ""
	if item, err := e.store.GetCatalogItem(ctx, itemNo); err == nil {
		description = item.Description
	}

	result := Reconciliation{ItemNo: itemNo}
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		for _, d := range deltas {
			entry := domain.BreakerEntry{
				ItemNo:      itemNo,
				Description: description,
				Units:       d.Units,
				Category:    d.Category,
				Employee:    employee,
				WhenIso:     whenIso,
			}
			seq, err := tx.AppendBreaker(ctx, entry)
			if err != nil {
				return err
			}
			entry.Seq = seq
			result.Applied = append(result.Applied, entry)
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}

	e.logger.Info("totals reconciled", "item", itemNo, "deltas", len(result.Applied), "by", employee)
	return result, nil
}

// ReconcileInteractive obtains the acting employee's name through the prompt
// provider, then reconciles dated today.
func (e *Engine) ReconcileInteractive(ctx context.Context, sess *session.Session, itemNo string, desired map[domain.Category]int64, prompter Prompter) (Reconciliation, error) {
	if sess == nil || !sess.AdminUnlocked {
		return Reconciliation{}, ErrAdminLocked
	}

	employee, err := prompter.Prompt(ctx, "employee name")
	if err != nil {
		return Reconciliation{}, err
	}
	return e.ReconcileTotals(ctx, sess, itemNo, desired, employee, "")
}

// =============================================================================
// Reporting
// =============================================================================

// BreakageReport aggregates ledger entries over the inclusive date range and
// joins them with catalog cost and vendor data. Items whose totals net to
// zero are excluded.
func (e *Engine) BreakageReport(ctx context.Context, fromIso, toIso string) (report.Report, error) {
	entries, err := e.store.BreakersBetween(ctx, fromIso, toIso)
	if err != nil {
		return report.Report{}, err
	}
	catalog, err := e.store.ListCatalog(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(entries, catalog), nil
}
