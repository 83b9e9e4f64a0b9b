package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const sessionIssuer = "kioskpay"

var errInvalidSession = errors.New("invalid session token")

type sessionClaims struct {
	Kind  domain.AccountKind `json:"kind"`
	Role  string             `json:"role"`
	Email string             `json:"email"`
	Name  string             `json:"name"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session for user and returns the token with its expiry.
func (s *Sessions) Issue(user domain.UserDescriptor) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Kind:  user.Kind,
		Role:  user.Role,
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns the user it was issued for.
func (s *Sessions) Parse(tokenString string) (domain.UserDescriptor, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.UserDescriptor{}, errInvalidSession
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return domain.UserDescriptor{}, errInvalidSession
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Kind.Valid() {
		return domain.UserDescriptor{}, errInvalidSession
	}
	return domain.UserDescriptor{ID: id, Email: claims.Email, Name: claims.Name, Role: claims.Role, Kind: claims.Kind}, nil
}
