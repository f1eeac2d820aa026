package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrZeroUnits is returned for a breaker entry with zero units.
	ErrZeroUnits = errors.New("breaker units must be a non-zero integer")

	// ErrInvalidCategory is returned for an unknown breaker category.
	ErrInvalidCategory = errors.New("category must be broken, spoiled or unsellable")
)

// =============================================================================
// Category
// =============================================================================

// Category classifies why stock left sellable inventory.
type Category string

const (
	CategoryBroken     Category = "broken"
	CategorySpoiled    Category = "spoiled"
	CategoryUnsellable Category = "unsellable"
)

// Categories lists the known categories in canonical order.
func Categories() []Category {
	return []Category{CategoryBroken, CategorySpoiled, CategoryUnsellable}
}

// IsValid checks whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBroken, CategorySpoiled, CategoryUnsellable:
		return true
	default:
		return false
	}
}

// =============================================================================
// BreakerEntry
// =============================================================================

// DayFormat is the day-granularity date layout used by the breaker ledger.
const DayFormat = "2006-01-02"

// BreakerEntry is one immutable record of the breakage ledger. Entries are
// only ever appended; units are normally positive, negative for
// reconciliation corrections. Seq is assigned by the store.
type BreakerEntry struct {
	Seq         int64    `json:"seq"`
	ItemNo      string   `json:"itemNo"`
	Description string   `json:"description"`
	Units       int64    `json:"units"`
	Category    Category `json:"category"`
	Employee    string   `json:"employee"`
	WhenIso     string   `json:"whenIso"`
}

// ValidateBreaker checks an entry before it is appended to the ledger.
func ValidateBreaker(e BreakerEntry) error {
	if e.ItemNo == "" {
		return ErrItemNoRequired
	}
	if e.Units == 0 {
		return ErrZeroUnits
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if _, err := time.ParseInLocation(DayFormat, e.WhenIso, time.Local); err != nil {
		return err
	}
	return nil
}

// OrderingTime anchors a day-granularity entry at local noon. A date-only
// entry spans the whole day; noon keeps it ordered between same-day morning
// and evening timestamps.
func (e BreakerEntry) OrderingTime() time.Time {
	day, err := time.ParseInLocation(DayFormat, e.WhenIso, time.Local)
	if err != nil {
		return time.Time{}
	}
	return day.Add(12 * time.Hour)
}

// Day returns a date formatted for the ledger.
func Day(t time.Time) string {
	return t.Format(DayFormat)
}
