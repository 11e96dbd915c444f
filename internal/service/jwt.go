package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

var ErrInvalidToken = errors.New("invalid token")

// AdminTokens issues and checks HS256 tokens for administrative endpoints.
type AdminTokens struct {
	secret []byte
}

// NewAdminTokens returns nil when secret is empty; a nil AdminTokens rejects
// every token.
func NewAdminTokens(secret string) *AdminTokens {
	if secret == "" {
		return nil
	}
	return &AdminTokens{secret: []byte(secret)}
}

func (a *AdminTokens) Generate(subject string, ttl time.Duration) (string, error) {
	if a == nil {
		return "", errors.New("admin secret is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse validates the token and returns its subject.
func (a *AdminTokens) Parse(tokenString string) (string, error) {
	if a == nil {
		return "", ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return "", errors.New("not an admin token")
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
