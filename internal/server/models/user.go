// Package models defines server-side data models persisted in the database.
package models

import "time"

// SubscriptionMode controls how viewers may subscribe to a creator.
type SubscriptionMode string

const (
	SubscriptionFree SubscriptionMode = "free"
	SubscriptionPaid SubscriptionMode = "paid"
	SubscriptionBoth SubscriptionMode = "both"
)

// VerificationStatus is the identity verification workflow state.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
)

// MessagePrivacy controls who may open a new conversation with a user.
type MessagePrivacy string

const (
	MessagePrivacyEveryone  MessagePrivacy = "everyone"
	MessagePrivacyFollowers MessagePrivacy = "followers"
	MessagePrivacyNoone     MessagePrivacy = "noone"
)

// User is a platform account. Wallet amounts are integer cents.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Bio          string
	AvatarKey    string

	IsCreator           bool
	SubscriptionMode    SubscriptionMode
	SubscriptionPrice   int64
	WalletBalance       int64
	VerificationStatus  VerificationStatus
	MonetizationEnabled bool

	// Latest verification submission; re-submission overwrites.
	VerificationIDKey     string
	VerificationSelfieKey string

	Settings  Settings
	CreatedAt time.Time
}

// Settings groups notification toggles and privacy flags.
type Settings struct {
	NotifyFollowers bool           `json:"followers"`
	NotifyPurchases bool           `json:"purchases"`
	NotifyMessages  bool           `json:"messages"`
	NotifyUpdates   bool           `json:"updates"`
	HideWallet      bool           `json:"hideWallet"`
	MessagePrivacy  MessagePrivacy `json:"messagePrivacy"`
}

// DefaultSettings returns the settings applied to a freshly registered user.
func DefaultSettings() Settings {
	return Settings{
		NotifyFollowers: true,
		NotifyPurchases: true,
		NotifyMessages:  true,
		NotifyUpdates:   true,
		MessagePrivacy:  MessagePrivacyEveryone,
	}
}

// Profile is the minimal directory view of a user, resolved for counterparts
// in conversation lists and public creator pages.
type Profile struct {
	ID                string           `json:"id"`
	DisplayName       string           `json:"displayName"`
	AvatarKey         string           `json:"avatarKey"`
	Bio               string           `json:"bio"`
	IsCreator         bool             `json:"isCreator"`
	SubscriptionMode  SubscriptionMode `json:"subscriptionMode"`
	SubscriptionPrice int64            `json:"subscriptionPrice"`
	Subscribers       int              `json:"subscribers"`
}
