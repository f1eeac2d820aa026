// Package session models one operator's editing session as an explicit
// context object. Nothing here is persisted; multiple sessions can coexist.
package session

import (
	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/google/uuid"
)

// Session holds the transient state of one operator: the pallet currently
// being edited, its unsaved lines, the admin-unlocked capability flag and the
// per-item markers left by a cascade touching unsaved lines.
type Session struct {
	ID            string
	CurrentPallet int
	Lines         []domain.LineItem
	AdminUnlocked bool

	// touched marks item numbers whose unsaved lines were rewritten by a
	// cascade during this session. Cleared on acknowledge or pallet switch.
	touched map[string]bool
}

// New creates an empty session.
func New() *Session {
	return &Session{ID: uuid.NewString(), touched: make(map[string]bool)}
}

// LoadPallet switches the session to a pallet, replacing the unsaved lines
// and clearing any cascade markers.
func (s *Session) LoadPallet(pallet int, lines []domain.LineItem) {
	s.CurrentPallet = pallet
	s.Lines = append([]domain.LineItem(nil), lines...)
	s.touched = make(map[string]bool)
}

// ApplyFactor rewrites every unsaved line for the item in place with the new
// conversion factor and marks the item as updated this session. It returns
// the number of lines changed.
func (s *Session) ApplyFactor(itemNo string, factor int) int {
	changed := 0
	for i := range s.Lines {
		if s.Lines[i].ItemNo != itemNo {
			continue
		}
		if s.Lines[i].ApplyFactor(factor) {
			changed++
		}
	}
	if changed > 0 {
		if s.touched == nil {
			s.touched = make(map[string]bool)
		}
		s.touched[itemNo] = true
	}
	return changed
}

// TouchedByCascade reports whether unsaved lines for the item were rewritten
// by a cascade and not yet acknowledged.
func (s *Session) TouchedByCascade(itemNo string) bool {
	return s.touched[itemNo]
}

// TouchedItems lists the items with pending cascade markers.
func (s *Session) TouchedItems() []string {
	out := make([]string, 0, len(s.touched))
	for item := range s.touched {
		out = append(out, item)
	}
	return out
}

// Acknowledge clears all cascade markers.
func (s *Session) Acknowledge() {
	s.touched = make(map[string]bool)
}
