package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/token"
)

type countingUserRepo struct {
	user        domain.User
	err         error
	getByIDCount int
}

func (r *countingUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.getByIDCount++
	if r.err != nil {
		return domain.User{}, r.err
	}
	return r.user, nil
}

func (r *countingUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (r *countingUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (r *countingUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return user, nil
}

func (r *countingUserRepo) Update(ctx context.Context, user domain.User) (domain.User, error) {
	return user, nil
}

type nullCache struct{}

func (nullCache) Get(ctx context.Context, id string) (domain.Snapshot, bool) {
	return domain.Snapshot{}, false
}
func (nullCache) Set(ctx context.Context, id string, snapshot domain.Snapshot, ttl time.Duration) error {
	return nil
}
func (nullCache) Delete(ctx context.Context, id string) error { return nil }

func newTestAuthService(repo *countingUserRepo, window time.Duration) *AuthService {
	return NewAuthService(token.NewCodec("secret"), repo, nullCache{}, window, zap.NewNop())
}

func freshSession(age time.Duration) *domain.Session {
	return &domain.Session{
		User:          domain.Snapshot{ID: "usr-1", Username: "stale", Type: domain.UserTypeStudent},
		LastRefreshed: time.Now().Add(-age),
	}
}

func TestRevalidateFreshSessionSkipsStore(t *testing.T) {
	repo := &countingUserRepo{}
	svc := newTestAuthService(repo, 10*time.Second)

	session := freshSession(time.Second)
	svc.revalidate(context.Background(), session)

	assert.Equal(t, 0, repo.getByIDCount, "fresh snapshot must not hit the identity store")
	assert.Equal(t, "stale", session.User.Username)
}

func TestRevalidateStaleSessionRefreshes(t *testing.T) {
	banned := time.Now()
	org := "org-7"
	repo := &countingUserRepo{user: domain.User{
		ID:                  "usr-1",
		Email:               "bob@example.com",
		Username:            "renamed",
		Name:                "Bob",
		Type:                domain.UserTypeTeacher,
		BannedAt:            &banned,
		Flags:               5,
		CompletedOnboarding: true,
		OrganizationID:      &org,
		IsOrgEligible:       true,
	}}
	svc := newTestAuthService(repo, 10*time.Second)

	session := freshSession(time.Minute)
	before := session.LastRefreshed
	svc.revalidate(context.Background(), session)

	require.Equal(t, 1, repo.getByIDCount, "stale snapshot must trigger exactly one refresh read")
	assert.Equal(t, "renamed", session.User.Username)
	assert.Equal(t, domain.UserTypeTeacher, session.User.Type)
	assert.True(t, session.User.Banned)
	assert.Equal(t, 5, session.User.Flags)
	assert.Equal(t, &org, session.User.OrganizationID)
	assert.True(t, session.User.IsOrgEligible)
	assert.True(t, session.LastRefreshed.After(before), "refresh must reset the timestamp")
}

func TestRevalidateFailureServesStale(t *testing.T) {
	repo := &countingUserRepo{err: context.DeadlineExceeded}
	svc := newTestAuthService(repo, 10*time.Second)

	session := freshSession(time.Minute)
	svc.revalidate(context.Background(), session)

	assert.Equal(t, "stale", session.User.Username, "refresh failure must keep the stale snapshot")
}

func TestAuthTokenRejectsTamperedToken(t *testing.T) {
	svc := newTestAuthService(&countingUserRepo{}, 10*time.Second)

	forged, err := token.NewCodec("other-secret").Sign(domain.Session{
		User: domain.Snapshot{ID: "usr-1"},
	}, time.Hour)
	require.NoError(t, err)

	_, err = svc.AuthToken(context.Background(), forged)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestAuthTokenRevalidatesThroughCodec(t *testing.T) {
	repo := &countingUserRepo{user: domain.User{ID: "usr-1", Username: "fresh"}}
	svc := newTestAuthService(repo, 10*time.Second)

	codec := token.NewCodec("secret")
	signed, err := codec.Sign(domain.Session{
		User:          domain.Snapshot{ID: "usr-1", Username: "stale"},
		LastRefreshed: time.Now().Add(-time.Minute),
	}, time.Hour)
	require.NoError(t, err)

	session, err := svc.AuthToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "fresh", session.User.Username)
}
