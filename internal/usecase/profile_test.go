package usecase

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/insa-apps/studygate/internal/domain"
)

func TestUpdateUsername(t *testing.T) {
	repo := &mockUserRepo{users: []domain.User{{
		ID:       "usr-1",
		Email:    "bob@example.com",
		Username: "bob123456",
	}}}
	cache := newMockSnapshotCache()
	cache.snapshots["usr-1"] = domain.Snapshot{ID: "usr-1", Username: "bob123456"}
	uc := NewProfileUsecase(repo, cache)

	user, err := uc.UpdateUsername(context.Background(), "usr-1", "bob")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.Username != "bob" {
		t.Fatalf("expected bob got %s", user.Username)
	}
	if !user.CompletedOnboarding {
		t.Fatalf("expected onboarding marked complete")
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "usr-1" {
		t.Fatalf("expected cached snapshot to be invalidated")
	}
}

func TestUpdateUsernameTaken(t *testing.T) {
	repo := &mockUserRepo{users: []domain.User{
		{ID: "usr-1", Email: "bob@example.com", Username: "bob123456"},
		{ID: "usr-2", Email: "alice@example.com", Username: "alice"},
	}}
	uc := NewProfileUsecase(repo, newMockSnapshotCache())

	_, err := uc.UpdateUsername(context.Background(), "usr-1", "alice")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken got %v", err)
	}
}

func TestUpdateUsernameKeepOwn(t *testing.T) {
	repo := &mockUserRepo{users: []domain.User{{
		ID:       "usr-1",
		Email:    "bob@example.com",
		Username: "bob",
	}}}
	uc := NewProfileUsecase(repo, newMockSnapshotCache())

	// Re-submitting your own current username is not a collision.
	user, err := uc.UpdateUsername(context.Background(), "usr-1", "bob")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.Username != "bob" {
		t.Fatalf("expected bob got %s", user.Username)
	}
}
