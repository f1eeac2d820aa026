package engine

import (
	"context"

	"github.com/Ccarlosa01/inventory-management-system/internal/core/domain"
	"github.com/Ccarlosa01/inventory-management-system/internal/core/session"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Settings
// =============================================================================

// SetPalletCount records the total number of pallet locations. The field is
// write-once: a second attempt returns store.ErrAlreadySet, which callers
// treat as informational.
func (e *Engine) SetPalletCount(ctx context.Context, n int) error {
	return e.store.SetPalletCount(ctx, n)
}

// Settings returns the singular configuration record.
func (e *Engine) Settings(ctx context.Context) (domain.Settings, error) {
	return e.store.GetSettings(ctx)
}

// =============================================================================
// Admin Capability
// =============================================================================

// SetAdminCredential stores a bcrypt digest of the admin credential; the
// credential itself is never persisted.
func (e *Engine) SetAdminCredential(ctx context.Context, credential string) error {
	digest, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return e.store.SetAdminDigest(ctx, string(digest))
}

// CheckAdminCredential is the boolean capability check: it reports whether
// the credential matches the stored digest. A store with no digest grants
// nothing.
func (e *Engine) CheckAdminCredential(ctx context.Context, credential string) (bool, error) {
	set, err := e.store.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if set.AdminDigest == "" {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(set.AdminDigest), []byte(credential)) == nil, nil
}

// Unlock grants the session the admin capability when the credential checks
// out, and reports whether it did.
func (e *Engine) Unlock(ctx context.Context, sess *session.Session, credential string) (bool, error) {
	ok, err := e.CheckAdminCredential(ctx, credential)
	if err != nil {
		return false, err
	}
	sess.AdminUnlocked = ok
	return ok, nil
}
