package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error verification surfaces. Signature,
// expiry, and shape failures all collapse into it so callers cannot leak
// which check rejected the token.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the decoded token payload attached to a request for its
// duration. It is never persisted.
type Principal struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service signs and verifies the two token kinds with independent secrets.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret []byte) *Service {
	return &Service{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func (s *Service) SignAccessToken(p Principal) (string, time.Time, error) {
	return sign(p, s.AccessSecret, s.AccessTTL)
}

func (s *Service) SignRefreshToken(p Principal) (string, time.Time, error) {
	return sign(p, s.RefreshSecret, s.RefreshTTL)
}

func (s *Service) ParseAccessToken(raw string) (*Principal, error) {
	return parse(raw, s.AccessSecret)
}

func (s *Service) ParseRefreshToken(raw string) (*Principal, error) {
	return parse(raw, s.RefreshSecret)
}

func sign(p Principal, secret []byte, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Email: p.Email,
		Roles: p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func parse(raw string, secret []byte) (*Principal, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &Principal{
		ID:    claims.Subject,
		Email: claims.Email,
		Roles: claims.Roles,
	}, nil
}
