package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
)

const maxUsernameLen = 80

type AuthService struct {
	Repo     *repo.GormRepo
	Sessions *session.Manager
	Producer mykafka.Publisher

	// AllowSelfAdmin lets the registration form grant the admin flag.
	AllowSelfAdmin bool
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username required", ErrValidation)
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return fmt.Errorf("%w: username longer than %d characters", ErrValidation, maxUsernameLen)
	}
	if password == "" {
		return fmt.Errorf("%w: password required", ErrValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, password string, wantAdmin bool) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	isAdmin := wantAdmin
	if wantAdmin && !s.AllowSelfAdmin {
		logging.FromContext(ctx).Warn("register_admin_ignored", "username", username, "reason", "self-assigned admin disabled")
		isAdmin = false
	}

	user, err := s.createUser(ctx, username, password, isAdmin)
	if err != nil {
		return nil, err
	}

	mykafka.Publish(ctx, s.Producer, logging.FromContext(ctx), mykafka.TopicUsers, strconv.FormatUint(uint64(user.ID), 10),
		mykafka.NewEvent("user_registered", map[string]any{
			"userID":   user.ID,
			"username": user.Username,
			"is_admin": user.IsAdmin,
		}))
	return user, nil
}

// CreateAdmin registers an administrator regardless of AllowSelfAdmin.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	return s.createUser(ctx, username, password, true)
}

func (s *AuthService) createUser(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	if _, err := s.Repo.UserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hashed, IsAdmin: isAdmin}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username already exists", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login never reveals whether the username exists.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		hash.BurnCompare(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.Sessions.Issue(ctx, user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	mykafka.Publish(ctx, s.Producer, logging.FromContext(ctx), mykafka.TopicUsers, strconv.FormatUint(uint64(user.ID), 10),
		mykafka.NewEvent("user_logged_in", map[string]any{"userID": user.ID}))

	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Sessions.Revoke(ctx, token)
}
