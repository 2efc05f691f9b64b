package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

// AuthService authenticates against whichever storage adapter is currently
// active, so user records travel with the data.
type AuthService struct {
	registry *Registry
}

func NewAuthService(registry *Registry) *AuthService {
	return &AuthService{registry: registry}
}

// Authenticate checks credentials. Unknown user and wrong password return the
// same error so the response never reveals which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	user, err := s.registry.Current().GetUserByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}
	return user, nil
}

// GetUser fetches a user by id from the active store.
func (s *AuthService) GetUser(ctx context.Context, id string) (*core.User, error) {
	return s.registry.Current().GetUser(ctx, id)
}

// HasUsers reports whether any account exists in the active store.
func (s *AuthService) HasUsers(ctx context.Context) (bool, error) {
	users, err := s.registry.Current().ListUsers(ctx)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// NewUser hashes the password and builds a ready-to-insert user record.
func NewUser(username, email, password, firstName, lastName string) (*core.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &core.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// UpdateProfile applies a profile patch, hashing the password if one was
// supplied. An empty password leaves the stored hash alone.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, p core.UserPatch) (*core.User, error) {
	if p.Password != nil && *p.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		p.Password = &hashed
	} else {
		p.Password = nil
	}
	return s.registry.Current().UpdateUser(ctx, userID, p)
}

// ResetPassword sets a new password for the named user, for operator recovery
// from the command line.
func (s *AuthService) ResetPassword(ctx context.Context, username, newPassword string) error {
	user, err := s.registry.Current().GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user not found: %s", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	hashed := string(hash)
	_, err = s.registry.Current().UpdateUser(ctx, user.ID, core.UserPatch{Password: &hashed})
	return err
}
