package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"rofl/auth"
	"rofl/domain"
	"rofl/errors"
	"rofl/eventlog"
	"rofl/repositories"
)

type IUserService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (domain.User, string, error)
	Login(ctx context.Context, req auth.LoginRequest) (string, error)
}

type UserService struct {
	users  repositories.IUserRepository
	tokens auth.TokenIssuer
	log    *slog.Logger
}

func NewUserService(users repositories.IUserRepository, tokens auth.TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

// Register creates the user with a fresh signing identity and returns the
// initial session token.
func (s *UserService) Register(ctx context.Context, req auth.RegisterRequest) (domain.User, string, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	user, err := domain.NewUser(req.DisplayName, uuid.New().String())
	if err != nil {
		return domain.User{}, "", err
	}
	user.Email = req.Email
	user.Keys, err = eventlog.NewKeys()
	if err != nil {
		return domain.User{}, "", err
	}

	// Hashing happens here so the repository never sees a plain password.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}
	if err := s.users.Create(ctx, *user, hash); err != nil {
		return domain.User{}, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	s.log.Info("user registered", "user_id", user.ID)
	return *user, token, nil
}

func (s *UserService) Login(ctx context.Context, req auth.LoginRequest) (string, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// A single generic error for every failure mode prevents enumeration.
	user, hash, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(req.Password, hash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}
