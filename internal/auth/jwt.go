package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-replica/internal/domain"
)

var (
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("token has expired or is invalid")
)

// Claims are the access-token claims.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type jwtSigner struct {
	secret []byte
	ttl    time.Duration
}

func newJWTSigner(secret string, ttl time.Duration) *jwtSigner {
	return &jwtSigner{secret: []byte(secret), ttl: ttl}
}

func (s *jwtSigner) issue(userID, email string, role domain.Role) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *jwtSigner) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
