package domain

import "time"

type UserType string

const (
	UserTypeStudent UserType = "Student"
	UserTypeTeacher UserType = "Teacher"
)

// User is a platform identity. ID and Email are immutable after creation;
// Username is unique across all identities.
type User struct {
	ID                  string
	Email               string
	Username            string
	Name                string
	DisplayName         bool
	Type                UserType
	BannedAt            *time.Time
	Flags               int
	CompletedOnboarding bool
	OrganizationID      *string
	IsOrgEligible       bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u User) Banned() bool {
	return u.BannedAt != nil
}
