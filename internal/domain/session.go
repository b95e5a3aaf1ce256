package domain

import (
	"context"
	"time"
)

// Snapshot is the subset of User fields embedded in a session token so that
// most requests can be served without an identity-store lookup.
type Snapshot struct {
	ID                  string   `json:"id"`
	Email               string   `json:"email"`
	Username            string   `json:"username"`
	Name                string   `json:"name"`
	DisplayName         bool     `json:"displayName"`
	Type                UserType `json:"type"`
	Banned              bool     `json:"banned"`
	Flags               int      `json:"flags"`
	CompletedOnboarding bool     `json:"completedOnboarding"`
	OrganizationID      *string  `json:"organizationId"`
	IsOrgEligible       bool     `json:"isOrgEligible"`
}

// SnapshotOf projects a User onto its session snapshot.
func SnapshotOf(u User) Snapshot {
	return Snapshot{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		Name:                u.Name,
		DisplayName:         u.DisplayName,
		Type:                u.Type,
		Banned:              u.Banned(),
		Flags:               u.Flags,
		CompletedOnboarding: u.CompletedOnboarding,
		OrganizationID:      u.OrganizationID,
		IsOrgEligible:       u.IsOrgEligible,
	}
}

// Session is the in-memory representation of a verified session token.
// LastRefreshed tracks when the snapshot was last reconciled with the
// identity store; it travels inside the token, not as a separate cookie.
type Session struct {
	User          Snapshot  `json:"user"`
	Version       string    `json:"version"`
	Expires       time.Time `json:"expires"`
	LastRefreshed time.Time `json:"-"`
}

// SessionFromContext returns the session attached by the auth middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionCtxKey).(*Session)
	return session, ok && session != nil
}
