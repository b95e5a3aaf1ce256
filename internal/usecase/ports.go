package usecase

import (
	"context"
	"time"

	"github.com/insa-apps/studygate/internal/domain"
)

// UserRepository defines persistence for platform identities. Create and
// Update return domain.ErrConflict on unique constraint violations; lookups
// return domain.ErrNotFound for missing rows.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
}

// SnapshotCache is a read-through cache for identity snapshots keyed by user
// id, bounding identity-store reads during session revalidation.
type SnapshotCache interface {
	Get(ctx context.Context, id string) (domain.Snapshot, bool)
	Set(ctx context.Context, id string, snapshot domain.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
