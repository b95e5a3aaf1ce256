package models

import (
	"time"

	"github.com/insa-apps/studygate/internal/domain"
)

// User is the persistence model for platform identities. Email and Username
// carry unique indexes; the email constraint is the backstop for the
// find-or-create race in the identity resolver.
type User struct {
	ID                  string `gorm:"primaryKey"`
	Email               string `gorm:"uniqueIndex;not null"`
	Username            string `gorm:"uniqueIndex;not null"`
	Name                string
	DisplayName         bool   `gorm:"default:true"`
	Type                string `gorm:"default:Student"`
	BannedAt            *time.Time
	Flags               int
	CompletedOnboarding bool
	OrganizationID      *string
	IsOrgEligible       bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u User) ToDomain() domain.User {
	return domain.User{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		Name:                u.Name,
		DisplayName:         u.DisplayName,
		Type:                domain.UserType(u.Type),
		BannedAt:            u.BannedAt,
		Flags:               u.Flags,
		CompletedOnboarding: u.CompletedOnboarding,
		OrganizationID:      u.OrganizationID,
		IsOrgEligible:       u.IsOrgEligible,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func FromDomain(u domain.User) User {
	return User{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		Name:                u.Name,
		DisplayName:         u.DisplayName,
		Type:                string(u.Type),
		BannedAt:            u.BannedAt,
		Flags:               u.Flags,
		CompletedOnboarding: u.CompletedOnboarding,
		OrganizationID:      u.OrganizationID,
		IsOrgEligible:       u.IsOrgEligible,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
