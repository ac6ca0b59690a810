// Package identity registers users, checks passwords and issues bearer tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

const bcryptCost = 10

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	InsertUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type Service struct {
	users  UserStore
	tokens *Tokens
}

func NewService(users UserStore, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (string, core.User, error) {
	if err := core.ValidateCredentials(name, email, password); err != nil {
		return "", core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.InsertUser(ctx, core.User{
		Name:         strings.TrimSpace(name),
		Email:        core.NormalizeEmail(email),
		PasswordHash: string(hash),
	})
	if err != nil {
		if core.KindOf(err) != 0 {
			return "", core.User{}, err
		}
		return "", core.User{}, core.StorageFailure("register user", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", core.User{}, err
	}
	return token, u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, core.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", core.User{}, core.StorageFailure("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", core.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", core.User{}, err
	}
	return token, u, nil
}

// Authenticate verifies a bearer token and returns the owner id it carries.
func (s *Service) Authenticate(token string) (int64, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *Service) Me(ctx context.Context, id int64) (core.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if core.KindOf(err) != 0 {
			return core.User{}, err
		}
		return core.User{}, core.StorageFailure("load user", err)
	}
	return u, nil
}
