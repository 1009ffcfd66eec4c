package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/model"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// NormalizeEmail приводит адрес к сравнимому виду.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	n := NormalizeEmail(email)
	if n == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", n).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}
