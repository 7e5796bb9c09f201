package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"po-manager/internal/models"
	"po-manager/internal/store"
	"po-manager/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt refuses passwords longer than this many bytes
const maxPasswordBytes = 72

// UserService manages accounts
type UserService struct {
	repo   Repository
	events EventPublisher
	logger *zap.Logger
	cost   int
}

// NewUserService creates a new user service
func NewUserService(repo Repository, events EventPublisher) *UserService {
	return &UserService{
		repo:   repo,
		events: events,
		logger: util.GetLogger(),
		cost:   bcrypt.DefaultCost,
	}
}

// RegisterUserRequest represents a sign-up
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UpdateUserRequest replaces a user's details; an empty password keeps the current one
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

// LoginRequest represents a sign-in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUser registers a user with a bcrypt password hash
func (s *UserService) CreateUser(ctx context.Context, req *RegisterUserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CreateUser")
	defer span.End()

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, duplicateAsValidation(err, "user")
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID))

	s.publish(WithActor(ctx, user.ID), models.EventTypeUserCreated, user)
	return user, nil
}

// UpdateUser overwrites a user's username and email, and the password when one is given
func (s *UserService) UpdateUser(ctx context.Context, id int64, req *UpdateUserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Username, user.Email = req.Username, req.Email
	if req.Password != "" {
		if user.PasswordHash, err = s.hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, duplicateAsValidation(err, "user")
	}
	return user, nil
}

// DeleteUser removes a user who has not created any purchase order
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteUser")
	defer span.End()

	var user *models.User
	err := s.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		var err error
		user, err = q.LockUser(ctx, id)
		if err != nil {
			return err
		}

		n, err := q.CountOrdersByUser(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count user orders: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s created %d order(s)", models.ErrHasOrders, user.Username, n)
		}

		return q.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	s.publish(ctx, models.EventTypeUserDeleted, user)
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType string, user *models.User) {
	event := &models.UserEvent{
		BaseEvent: newBaseEvent(ctx, eventType),
		UserID:    user.ID,
		Username:  user.Username,
	}
	if err := s.events.PublishUserEvent(ctx, user.ID, event); err != nil {
		s.logger.Error("Failed to publish user event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// hashPassword enforces the byte limit, which the rune-counting max tag misses
// for multi-byte passwords
func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", models.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks a user's credentials
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers retrieves all users
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}
