package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"quiz-service/internal/domain"
)

const (
	issuer = "quiz-service"
	// bcrypt only looks at the first 72 bytes of a password.
	maxPasswordBytes = 72
)

// Credentials is the admin identity loaded once at start.
type Credentials struct {
	Username     string
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
}

// Service checks admin credentials and issues HS256 bearer tokens.
type Service struct {
	username string
	hash     []byte
	hmac     []byte
	ttl      time.Duration
	now      func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

func NewService(creds Credentials) (*Service, error) {
	if creds.Username == "" {
		return nil, errors.New("admin username not configured")
	}
	if creds.Secret == "" {
		return nil, errors.New("token secret not configured")
	}
	if _, err := bcrypt.Cost([]byte(creds.PasswordHash)); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	ttl := creds.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{
		username: creds.Username,
		hash:     []byte(creds.PasswordHash),
		hmac:     []byte(creds.Secret),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// HashPassword produces a bcrypt hash suitable for the admin password config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate checks a username/password pair against the configured admin.
func (s *Service) Authenticate(username, password string) error {
	if username != s.username {
		return domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, truncate(password)); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// IssueToken signs a token for subject valid for the configured TTL.
func (s *Service) IssueToken(subject string) (string, time.Duration, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmac)
	if err != nil {
		return "", 0, err
	}
	return token, s.ttl, nil
}

// Parse validates a token and returns its subject. Any failure is reported as
// domain.ErrUnauthorized.
func (s *Service) Parse(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}
	if claims.Subject != s.username {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
