package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"github.com/shashiranjanraj/shopfront/pkg/auth"
	"gorm.io/gorm"
)

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db)}
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", models.User{}, ErrInvalidLogin
	}
	if err != nil {
		return "", models.User{}, fmt.Errorf("auth: find user: %w", err)
	}
	if !auth.CheckPassword(user.Password, password) {
		return "", models.User{}, ErrInvalidLogin
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", models.User{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, user, nil
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, invalid("email", "The email has already been taken.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("auth: find user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	user := models.User{Name: name, Email: email, Password: hash, Role: models.RoleUser}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}
