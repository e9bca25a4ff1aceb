package users

import "time"

// Tier classifies a user for limit purposes.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// User mirrors the users table owned by the identity stack. This service
// only ever reads it.
type User struct {
	ID        string
	UserType  string
	Provider  string
	CreatedAt time.Time
}
