package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/repository"
)

// IdentityService реализует регистрацию и вход по email/паролю.
type IdentityService struct {
	userRepo repository.UserRepository
}

func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// Signup создаёт пользователя с bcrypt-хешем пароля.
func (s *IdentityService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" || email == "" {
		return nil, apperr.InvalidArg("name and email are required")
	}
	if len(password) < 6 {
		return nil, apperr.InvalidArg("password must be at least 6 characters")
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperr.AlreadyExists("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "hash password", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login проверяет email/пароль и возвращает пользователя.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return u, nil
}
