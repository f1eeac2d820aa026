package domain

// Settings is the singular configuration record. PalletCount is write-once;
// the store rejects a second write with ErrAlreadySet. AdminDigest holds the
// bcrypt digest of the admin credential, never the credential itself.
type Settings struct {
	PalletCount *int   `json:"palletCount,omitempty"`
	AdminDigest string `json:"adminDigest,omitempty"`
}
