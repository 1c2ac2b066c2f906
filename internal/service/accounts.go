package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contentBackend/internal/auth"
	"contentBackend/models"
	"contentBackend/repository"
)

// Accounts registers users and exchanges credentials for session tokens.
type Accounts struct {
	users  repository.UserRepositoryI
	issuer *auth.Issuer
	cost   int
	logger *slog.Logger
}

// NewAccounts wires the users collection to the token issuer. cost is the
// bcrypt work factor; zero selects auth.DefaultBcryptCost.
func NewAccounts(users repository.UserRepositoryI, issuer *auth.Issuer, cost int, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{users: users, issuer: issuer, cost: cost, logger: logger}
}

// Register stores a new user with a hashed password.
func (a *Accounts) Register(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	users, err := a.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	hash, err := auth.HashPassword(password, a.cost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}
	u := models.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin}
	if err := a.users.ReplaceAll(ctx, append(users, u)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	a.logger.Info("user registered", "username", username, "admin", isAdmin)
	return &u, nil
}

// Verify returns the user whose stored hash matches password.
func (a *Accounts) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	ok, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		a.logger.Warn("stored password hash unusable", "username", username, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login verifies the credentials and issues a token for the user.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	u, err := a.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	tok, err := a.issuer.Issue(auth.Principal{Username: u.Username, IsAdmin: u.IsAdmin})
	if err != nil {
		return "", err
	}
	a.logger.Debug("login succeeded", "username", u.Username)
	return tok, nil
}
