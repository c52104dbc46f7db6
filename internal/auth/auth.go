// Package auth manages local profiles and the session tokens issued for them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	minPasswordLen = 6
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	maxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrMissingFields      = errors.New("email, password and display name are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Signup struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, c Credentials) (core.User, error)
	Register(ctx context.Context, s Signup) (core.User, error)
}

// LocalAuthenticator checks credentials against bcrypt hashes kept in a
// UserStore.
type LocalAuthenticator struct {
	users ports.UserStore
	cost  int
	now   func() time.Time
}

func NewLocalAuthenticator(users ports.UserStore) *LocalAuthenticator {
	return &LocalAuthenticator{users: users, cost: bcrypt.DefaultCost, now: time.Now}
}

func (a *LocalAuthenticator) Register(ctx context.Context, s Signup) (core.User, error) {
	email := strings.TrimSpace(s.Email)
	name := strings.TrimSpace(s.DisplayName)
	if email == "" || s.Password == "" || name == "" {
		return core.User{}, ErrMissingFields
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return core.User{}, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if len(s.Password) < minPasswordLen {
		return core.User{}, ErrPasswordTooShort
	}
	if len(s.Password) > maxPasswordBytes {
		return core.User{}, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return core.User{}, ErrPasswordTooLong
	}
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	rec := ports.UserRecord{
		User:         core.User{ID: uuid.NewString(), Email: email, DisplayName: name},
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return rec.User, nil
}

// Authenticate returns ErrInvalidCredentials for both unknown emails and
// wrong passwords.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, c Credentials) (core.User, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || c.Password == "" {
		return core.User{}, ErrInvalidCredentials
	}
	rec, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(c.Password)) != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return rec.User, nil
}

// Strength grades a password for signup feedback.
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// PasswordStrength awards a point each for length >= 6, length >= 12, an
// uppercase letter, a digit and a symbol, then buckets the total. Four and
// five points both grade as Strong with score 5.
func PasswordStrength(password string) Strength {
	if password == "" {
		return Strength{}
	}
	score := 0
	if len(password) >= 6 {
		score++
	}
	if len(password) >= 12 {
		score++
	}
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
		default:
			symbol = true
		}
	}
	for _, ok := range []bool{upper, digit, symbol} {
		if ok {
			score++
		}
	}
	switch {
	case score <= 1:
		return Strength{Score: 1, Label: "Weak"}
	case score == 2:
		return Strength{Score: 2, Label: "Fair"}
	case score == 3:
		return Strength{Score: 3, Label: "Good"}
	default:
		return Strength{Score: 5, Label: "Strong"}
	}
}
