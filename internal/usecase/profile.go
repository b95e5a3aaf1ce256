package usecase

import (
	"context"

	"github.com/pkg/errors"

	"github.com/insa-apps/studygate/internal/domain"
)

// ProfileUsecase handles user-initiated profile changes.
type ProfileUsecase struct {
	users     UserRepository
	snapshots SnapshotCache
}

func NewProfileUsecase(users UserRepository, snapshots SnapshotCache) *ProfileUsecase {
	return &ProfileUsecase{users: users, snapshots: snapshots}
}

// UpdateUsername renames the identity and marks onboarding complete.
// Returns domain.ErrUsernameTaken when the name belongs to someone else.
// The cached snapshot is invalidated so the next revalidation sees the
// change without waiting out the freshness window.
func (p *ProfileUsecase) UpdateUsername(ctx context.Context, userID, username string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Profile.Usecase.UpdateUsername")
	defer span.End()

	existing, err := p.users.GetByUsername(ctx, username)
	if err == nil && existing.ID != userID {
		return domain.User{}, domain.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return domain.User{}, errors.Wrap(err, "failed to check username availability")
	}

	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	user.Username = username
	user.CompletedOnboarding = true
	updated, err := p.users.Update(ctx, user)
	if err != nil {
		// The availability check above races against concurrent renames.
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, domain.ErrUsernameTaken
		}
		span.RecordError(err)
		return domain.User{}, errors.Wrap(err, "failed to update profile")
	}

	if err := p.snapshots.Delete(ctx, userID); err != nil {
		span.RecordError(err)
	}
	return updated, nil
}
