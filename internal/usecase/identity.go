package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/insa-apps/studygate/internal/domain"
)

var tracer = otel.Tracer("usecase")

// IdentityUsecase turns trusted header values into platform identities.
type IdentityUsecase struct {
	users UserRepository
}

func NewIdentityUsecase(users UserRepository) *IdentityUsecase {
	return &IdentityUsecase{users: users}
}

// Resolve finds or creates the identity for a trusted email. Resolutions
// through this path always end with onboarding marked complete, since the
// header-trust flow bypasses the normal first-time setup entirely.
//
// The username check-then-create below races against concurrent resolutions
// of the same new email. The store-level uniqueness constraint on email is
// the backstop: on a create conflict we re-fetch by email once instead of
// retry-looping.
func (u *IdentityUsecase) Resolve(ctx context.Context, email, uidHint string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Identity.Usecase.Resolve")
	defer span.End()

	if email == "" {
		return domain.User{}, domain.ErrMissingCredentialSource
	}

	existing, err := u.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.CompletedOnboarding {
			return existing, nil
		}
		existing.CompletedOnboarding = true
		updated, err := u.users.Update(ctx, existing)
		if err != nil {
			span.RecordError(err)
			return domain.User{}, errors.Wrap(err, "failed to mark onboarding complete")
		}
		return updated, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return domain.User{}, errors.Wrap(err, "failed to look up identity by email")
	}

	username, err := u.deriveUsername(ctx, email, uidHint)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	created, err := u.users.Create(ctx, domain.User{
		ID:                  uuid.NewString(),
		Email:               email,
		Username:            username,
		Name:                username,
		DisplayName:         true,
		Type:                domain.UserTypeStudent,
		CompletedOnboarding: true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the create race; another resolution of this email won.
			return u.users.GetByEmail(ctx, email)
		}
		span.RecordError(err)
		return domain.User{}, errors.Wrap(err, "failed to create identity")
	}
	return created, nil
}

// Lookup resolves an existing identity by email without ever creating one.
// This is the only entry point for the legacy email-hint fallback.
func (u *IdentityUsecase) Lookup(ctx context.Context, email string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Identity.Usecase.Lookup")
	defer span.End()

	if email == "" {
		return domain.User{}, domain.ErrMissingCredentialSource
	}
	return u.users.GetByEmail(ctx, email)
}

// deriveUsername picks the first free username: the uid hint verbatim when
// given, otherwise the sanitized local part of the email, suffixed with an
// incrementing number on collision (name, name1, name2, ...).
func (u *IdentityUsecase) deriveUsername(ctx context.Context, email, uidHint string) (string, error) {
	base := uidHint
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = sanitizeUsername(local)
	}
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; ; i++ {
		_, err := u.users.GetByUsername(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to check username availability")
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
