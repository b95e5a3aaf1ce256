package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/insa-apps/studygate/internal/domain"
	"github.com/insa-apps/studygate/internal/infra/database/models"
)

// UserRepository persists identities in postgres via gorm.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (domain.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NotFoundError{Resource: "user"}
		}
		return domain.User{}, err
	}
	return user.ToDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.get(ctx, "email = ?", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.get(ctx, "username = ?", username)
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	record := models.FromDomain(user)
	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, domain.ErrConflict
		}
		return domain.User{}, err
	}
	return record.ToDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	record := models.FromDomain(user)
	err := r.db.WithContext(ctx).Save(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, domain.ErrConflict
		}
		return domain.User{}, err
	}
	return record.ToDomain(), nil
}
