package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"staticblog/internal/models"
	"staticblog/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// Principal is the authenticated admin of one request.
type Principal struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Authenticate checks a username and password and records the login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Printf("Failed to record login of %s: %v", user.Username, err)
	}
	return principalOf(user), nil
}

// Principal loads the principal of a session's user id.
func (s *UserService) Principal(ctx context.Context, id uint) (*Principal, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return principalOf(user), nil
}

func (s *UserService) PrincipalByName(ctx context.Context, username string) (*Principal, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	return principalOf(user), nil
}

func principalOf(u *models.User) *Principal {
	return &Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// EnsureAdmin creates the admin user unless one with that name exists. It
// reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, invalid("username", "is required")
	}
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("load user: %w", err)
	}
	if len(password) < minPasswordLength {
		return false, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		Role:         "admin",
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}

// ChangePassword replaces the password of user id after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %d: %w", id, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return invalid("old_password", "is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return invalid("new_password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}
