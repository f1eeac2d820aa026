package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrBadPallet is returned when a pallet number is not positive.
	ErrBadPallet = errors.New("pallet number must be positive")

	// ErrNegativeCases is returned when a line carries a negative case count.
	ErrNegativeCases = errors.New("cases cannot be negative")
)

// =============================================================================
// LineItem
// =============================================================================

// LineItem is one line of a pallet record. Description and BPC are
// denormalized copies taken at entry time; they are re-synced only by the
// cascade propagator. Invariant: Units == BPC * Cases after every mutation.
type LineItem struct {
	ItemNo      string  `json:"itemNo"`
	Description string  `json:"description"`
	BPC         int     `json:"bpc"`
	Cases       float64 `json:"cases"`
	Units       float64 `json:"units"`
}

// NewLineItem builds a line with its derived unit count.
func NewLineItem(itemNo, description string, bpc int, cases float64) (LineItem, error) {
	if itemNo == "" {
		return LineItem{}, ErrItemNoRequired
	}
	if err := ValidateFactor(bpc); err != nil {
		return LineItem{}, err
	}
	if cases < 0 {
		return LineItem{}, ErrNegativeCases
	}
	l := LineItem{ItemNo: itemNo, Description: description, BPC: bpc, Cases: cases}
	l.Recompute()
	return l, nil
}

// Recompute re-derives Units from BPC and Cases, restoring the line invariant.
func (l *LineItem) Recompute() {
	l.Units = float64(l.BPC) * l.Cases
}

// ApplyFactor sets a new conversion factor on the line and re-derives Units.
// Only BPC and Units change; every other field is preserved. It reports
// whether the line actually changed.
func (l *LineItem) ApplyFactor(factor int) bool {
	if l.BPC == factor {
		return false
	}
	l.BPC = factor
	l.Recompute()
	return true
}

// =============================================================================
// Save History
// =============================================================================

// HistoryCap bounds the per-pallet save history. The history behaves as a
// ring: appending beyond the cap drops the oldest entry.
const HistoryCap = 500

// HistoryEntry records one save of a pallet.
type HistoryEntry struct {
	SavedBy string    `json:"savedBy"`
	SavedAt time.Time `json:"savedAt"`
}

// History is an append-only, bounded log of pallet saves, oldest first.
type History []HistoryEntry

// Append adds an entry, dropping the oldest entries beyond HistoryCap.
func (h History) Append(e HistoryEntry) History {
	h = append(h, e)
	if n := len(h); n > HistoryCap {
		h = h[n-HistoryCap:]
	}
	return h
}

// Recent returns entries whose timestamp falls within the trailing window
// ending at now, newest first.
func (h History) Recent(window time.Duration, now time.Time) []HistoryEntry {
	cutoff := now.Add(-window)
	var out []HistoryEntry
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].SavedAt.Before(cutoff) || h[i].SavedAt.After(now) {
			continue
		}
		out = append(out, h[i])
	}
	return out
}

// =============================================================================
// PalletRecord
// =============================================================================

// PalletRecord holds the current contents of one pallet location along with
// its save history. Saves are last-write-wins full overwrites.
type PalletRecord struct {
	Pallet  int        `json:"pallet"`
	Items   []LineItem `json:"items"`
	SavedBy string     `json:"savedBy"`
	SavedAt time.Time  `json:"savedAt"`
	History History    `json:"history"`
}

// Stamp records a save: it sets SavedBy/SavedAt and appends to the bounded
// history.
func (p *PalletRecord) Stamp(savedBy string, at time.Time) {
	p.SavedBy = savedBy
	p.SavedAt = at
	p.History = p.History.Append(HistoryEntry{SavedBy: savedBy, SavedAt: at})
}

// RecomputeLines restores the unit invariant on every line.
func (p *PalletRecord) RecomputeLines() {
	for i := range p.Items {
		p.Items[i].Recompute()
	}
}
