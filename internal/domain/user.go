package domain

// SubscriptionTier sets a user's storage allowance.
type SubscriptionTier string

const (
	// TierFree is the default tier for new accounts.
	TierFree SubscriptionTier = "free"
	// TierPlus is the paid tier.
	TierPlus SubscriptionTier = "plus"
)

const (
	// FreeTierStorageBytes is the upload quota for free accounts (2 GiB).
	FreeTierStorageBytes int64 = 2 << 30
	// PlusTierStorageBytes is the upload quota for plus accounts (50 GiB).
	PlusTierStorageBytes int64 = 50 << 30
)

// StorageLimitBytes returns the total upload quota for the tier.
func (t SubscriptionTier) StorageLimitBytes() int64 {
	if t == TierPlus {
		return PlusTierStorageBytes
	}
	return FreeTierStorageBytes
}

// User is a registered account.
type User struct {
	Syncable
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	DisplayName  string           `json:"display_name"`
	Tier         SubscriptionTier `json:"tier"`
}

// StorageLimitBytes returns the user's upload quota.
func (u *User) StorageLimitBytes() int64 {
	return u.Tier.StorageLimitBytes()
}
