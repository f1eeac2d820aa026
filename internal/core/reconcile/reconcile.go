// Package reconcile converts admin-entered absolute breakage totals into
// signed ledger deltas, preserving the ledger's append-only history.
// This is part of the Functional Core - all functions are pure with no I/O.
package reconcile

import (
	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
)

// Delta is one signed correction to append for a category.
type Delta struct {
	Category domain.Category
	Units    int64
}

// Deltas compares the current per-category sums against the desired absolute
// totals and returns one signed delta per category that differs, in canonical
// category order. Equal totals produce no delta, so applying the same desired
// totals twice yields an empty second plan.
func Deltas(current, desired map[domain.Category]int64) []Delta {
	var out []Delta
	for _, c := range domain.Categories() {
		if d := desired[c] - current[c]; d != 0 {
			out = append(out, Delta{Category: c, Units: d})
		}
	}
	return out
}

// Apply returns the totals that result from appending the given deltas.
// Useful for asserting the ledger sum law.
func Apply(current map[domain.Category]int64, deltas []Delta) map[domain.Category]int64 {
	out := make(map[domain.Category]int64, len(current))
	for c, v := range current {
		out[c] = v
	}
	for _, d := range deltas {
		out[d.Category] += d.Units
	}
	return out
}
