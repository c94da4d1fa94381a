package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingRole  = errors.New("token carries no role")
)

const DefaultTokenTTL = time.Hour

// Subject accepts both numeric and string "sub" claims; the auth service
// issues numeric user ids.
type Subject string

func (s *Subject) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Subject(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = Subject(n.String())
	return nil
}

// OperatorClaims are the claims the back office reads from a bearer token.
type OperatorClaims struct {
	Subject  Subject `json:"sub,omitempty"`
	Username string  `json:"username,omitempty"`
	Role     string  `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric operator id, or nil if the subject is not one.
func (c *OperatorClaims) UserID() *int64 {
	id, err := strconv.ParseInt(string(c.Subject), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

type TokenManager interface {
	GenerateAccessToken(userID int64, username, role string) (string, error)
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateAccessToken mints an HS256 token in the auth service's format.
// Only operator tooling and tests use it; tokens are normally issued by the
// auth service.
func (m *tokenManager) GenerateAccessToken(userID int64, username, role string) (string, error) {
	now := m.now()
	claims := OperatorClaims{
		Subject:  Subject(strconv.FormatInt(userID, 10)),
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}
	return claims, nil
}
