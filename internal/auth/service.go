package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cartmates/cartmates-backend/internal/users"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Identity is the authenticated caller as the rest of the service sees it.
// Staff identities bypass membership checks.
type Identity struct {
	UserID   string
	Username string
	IsStaff  bool
}

// UserStore is the slice of the users repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*users.User, error)
	GetByUsername(ctx context.Context, username string) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
}

func NewService(store UserStore, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: []byte(secret), ttl: ttl}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.store.Create(ctx, username, string(hash))
}

// IssueToken verifies the credentials and returns a signed bearer token.
func (s *Service) IssueToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"is_staff": u.IsStaff,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	})

	return token.SignedString(s.secret)
}

// GetUser loads the user record behind an authenticated identity. Unlike
// the token claims this reflects the current is_staff flag.
func (s *Service) GetUser(ctx context.Context, id string) (*users.User, error) {
	return s.store.GetByID(ctx, id)
}

// ParseToken validates a bearer token and returns the identity it carries.
func (s *Service) ParseToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	isStaff, _ := claims["is_staff"].(bool)

	return Identity{UserID: sub, Username: username, IsStaff: isStaff}, nil
}
