package session

import (
	"testing"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(t *testing.T, itemNo string, bpc int, cases float64) domain.LineItem {
	t.Helper()
	l, err := domain.NewLineItem(itemNo, itemNo+" desc", bpc, cases)
	require.NoError(t, err)
	return l
}

func TestApplyFactor_UpdatesAndMarks(t *testing.T) {
	s := New()
	s.LoadPallet(3, []domain.LineItem{
		line(t, "X100", 12, 3),
		line(t, "Y200", 6, 1),
		line(t, "X100", 12, 0.5),
	})

	changed := s.ApplyFactor("X100", 10)
	assert.Equal(t, 2, changed)
	assert.Equal(t, 30.0, s.Lines[0].Units)
	assert.Equal(t, 5.0, s.Lines[2].Units)
	// Other items untouched.
	assert.Equal(t, 6, s.Lines[1].BPC)

	assert.True(t, s.TouchedByCascade("X100"))
	assert.False(t, s.TouchedByCascade("Y200"))
	assert.Equal(t, []string{"X100"}, s.TouchedItems())
}

func TestApplyFactor_NoMatchingLines(t *testing.T) {
	s := New()
	s.LoadPallet(3, []domain.LineItem{line(t, "Y200", 6, 1)})

	assert.Equal(t, 0, s.ApplyFactor("X100", 10))
	assert.False(t, s.TouchedByCascade("X100"))
}

func TestAcknowledge_ClearsMarkers(t *testing.T) {
	s := New()
	s.LoadPallet(3, []domain.LineItem{line(t, "X100", 12, 3)})
	s.ApplyFactor("X100", 10)

	s.Acknowledge()
	assert.False(t, s.TouchedByCascade("X100"))
}

func TestLoadPallet_ClearsMarkersAndCopiesLines(t *testing.T) {
	s := New()
	s.LoadPallet(3, []domain.LineItem{line(t, "X100", 12, 3)})
	s.ApplyFactor("X100", 10)

	src := []domain.LineItem{line(t, "Z300", 4, 2)}
	s.LoadPallet(5, src)
	assert.Equal(t, 5, s.CurrentPallet)
	assert.False(t, s.TouchedByCascade("X100"))

	// The session owns its copy of the lines.
	s.Lines[0].Cases = 99
	assert.Equal(t, 2.0, src[0].Cases)
}

func TestNew_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, New().ID, New().ID)
}
