// Package report aggregates breakage ledger entries over a date range and
// joins them with catalog cost and vendor data.
// This is part of the Functional Core - all functions are pure with no I/O.
package report

import (
	"sort"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
)

// =============================================================================
// Types
// =============================================================================

// ItemBreakage is the per-item aggregation of ledger entries, joined with
// catalog data when the item is known. TotalCost is present only when the
// catalog carries an average cost for the item.
type ItemBreakage struct {
	ItemNo      string   `json:"itemNo"`
	Description string   `json:"description"`
	Broken      int64    `json:"broken"`
	Spoiled     int64    `json:"spoiled"`
	Unsellable  int64    `json:"unsellable"`
	TotalQty    int64    `json:"totalQty"`
	AvgCost     *float64 `json:"avgCost,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	SalesRep    string   `json:"salesRep,omitempty"`
	TotalCost   *float64 `json:"totalCost,omitempty"`
}

// Totals are the report-level sums across included items. TotalCost covers
// only items whose cost is known; CostedItems says how many that is.
type Totals struct {
	Broken      int64   `json:"broken"`
	Spoiled     int64   `json:"spoiled"`
	Unsellable  int64   `json:"unsellable"`
	TotalQty    int64   `json:"totalQty"`
	TotalCost   float64 `json:"totalCost"`
	CostedItems int     `json:"costedItems"`
}

// Report is the assembled breakage report for a date range.
type Report struct {
	Items  []ItemBreakage `json:"items"`
	Totals Totals         `json:"totals"`
}

// =============================================================================
// Aggregation
// =============================================================================

// Build groups ledger entries by item number, sums units per category and
// joins against the catalog. Items whose total quantity nets to zero (which
// happens when reconciliation deltas cancel out) are excluded. Items are
// ordered by item number.
func Build(entries []domain.BreakerEntry, catalog []domain.CatalogItem) Report {
	byItem := make(map[string]*ItemBreakage)
	for _, e := range entries {
		g, ok := byItem[e.ItemNo]
		if !ok {
			g = &ItemBreakage{ItemNo: e.ItemNo, Description: e.Description}
			byItem[e.ItemNo] = g
		}
		if g.Description == "" {
			g.Description = e.Description
		}
		switch e.Category {
		case domain.CategoryBroken:
			g.Broken += e.Units
		case domain.CategorySpoiled:
			g.Spoiled += e.Units
		case domain.CategoryUnsellable:
			g.Unsellable += e.Units
		}
	}

	lookup := make(map[string]domain.CatalogItem, len(catalog))
	for _, c := range catalog {
		lookup[c.ItemNo] = c
	}

	var rep Report
	for _, g := range byItem {
		g.TotalQty = g.Broken + g.Spoiled + g.Unsellable
		if g.TotalQty == 0 {
			continue
		}
		if c, ok := lookup[g.ItemNo]; ok {
			g.AvgCost = c.AvgCost
			g.Vendor = c.Vendor
			g.SalesRep = c.SalesRep
			if g.Description == "" {
				g.Description = c.Description
			}
			if c.AvgCost != nil {
				cost := *c.AvgCost * float64(g.TotalQty)
				g.TotalCost = &cost
			}
		}
		rep.Items = append(rep.Items, *g)
	}

	sort.Slice(rep.Items, func(i, j int) bool {
		return rep.Items[i].ItemNo < rep.Items[j].ItemNo
	})

	for _, g := range rep.Items {
		rep.Totals.Broken += g.Broken
		rep.Totals.Spoiled += g.Spoiled
		rep.Totals.Unsellable += g.Unsellable
		rep.Totals.TotalQty += g.TotalQty
		if g.TotalCost != nil {
			rep.Totals.TotalCost += *g.TotalCost
			rep.Totals.CostedItems++
		}
	}

	return rep
}
