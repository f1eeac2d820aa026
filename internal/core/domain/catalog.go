// Package domain contains the core inventory types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strconv"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrItemNoRequired is returned when an item number is missing.
	ErrItemNoRequired = errors.New("item number is required")

	// ErrInvalidFactor is returned when a conversion factor is not an integer >= 1.
	ErrInvalidFactor = errors.New("conversion factor must be an integer >= 1")
)

// =============================================================================
// CatalogItem
// =============================================================================

// CatalogRowFields is the minimum number of columns an imported catalog row
// must carry. Shorter rows are skipped by the importer rather than rejected.
const CatalogRowFields = 6

// CatalogItem is one record of the item catalog. Catalog records are
// created or replaced wholesale on import and never partially mutated.
type CatalogItem struct {
	ItemNo      string   `json:"itemNo"`
	Description string   `json:"description"`
	PackSizeRaw string   `json:"packSizeRaw"`
	AvgCost     *float64 `json:"avgCost,omitempty"`
	Vendor      string   `json:"vendor"`
	SalesRep    string   `json:"salesRep"`
}

// CatalogItemFromRow builds a CatalogItem from a raw import row in the order
// itemNo, description, packSize, avgCost, vendor, salesRep. It reports false
// for rows with fewer than CatalogRowFields columns or an empty item number;
// such rows are skipped, not errors. An unparseable cost column leaves
// AvgCost absent.
func CatalogItemFromRow(row []string) (CatalogItem, bool) {
	if len(row) < CatalogRowFields {
		return CatalogItem{}, false
	}

	itemNo := strings.TrimSpace(row[0])
	if itemNo == "" {
		return CatalogItem{}, false
	}

	item := CatalogItem{
		ItemNo:      itemNo,
		Description: strings.TrimSpace(row[1]),
		PackSizeRaw: strings.TrimSpace(row[2]),
		Vendor:      strings.TrimSpace(row[4]),
		SalesRep:    strings.TrimSpace(row[5]),
	}

	if cost, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64); err == nil {
		item.AvgCost = &cost
	}

	return item, true
}

// =============================================================================
// Conversion Factors
// =============================================================================

// ConversionEntry maps an item number to its units-per-case factor. The
// conversion registry is the single source of truth for this number.
type ConversionEntry struct {
	ItemNo string `json:"itemNo"`
	Factor int    `json:"factor"`
}

// ParseFactor parses operator input into a conversion factor. Anything that
// is not an integer >= 1 is rejected with ErrInvalidFactor; values are never
// silently coerced.
func ParseFactor(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, ErrInvalidFactor
	}
	return n, nil
}

// ValidateFactor checks a factor supplied programmatically.
func ValidateFactor(factor int) error {
	if factor < 1 {
		return ErrInvalidFactor
	}
	return nil
}
