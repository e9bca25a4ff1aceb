package users

import (
	"context"
	"log/slog"
)

// Resolver maps a user ID to a tier. Lookup failures and missing records
// resolve to the free tier: the stricter limits apply rather than
// accidentally granting premium.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) ResolveTier(ctx context.Context, userID string) Tier {
	user, err := r.repo.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("resolving user tier, defaulting to free", "error", err, "user_id", userID)
		return TierFree
	}
	if user == nil {
		return TierFree
	}
	if user.UserType == string(TierPremium) {
		return TierPremium
	}
	return TierFree
}
