package utils

import (
	"errors"
	"fmt"
	"greenbasket/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionClaims struct {
	Wholesale bool   `json:"wholesale"`
	CSRF      string `json:"csrf"`
	jwt.RegisteredClaims
}

// NewSession starts an anonymous shopper session with fresh ids.
func NewSession(wholesale bool) models.Session {
	return models.Session{
		ID:        uuid.NewString(),
		Wholesale: wholesale,
		CSRFToken: uuid.NewString(),
	}
}

func GenerateSessionToken(session models.Session, secret string, expiry time.Duration) (string, error) {
	if session.ID == "" {
		return "", errors.New("session id required")
	}
	now := time.Now()
	claims := SessionClaims{
		Wholesale: session.Wholesale,
		CSRF:      session.CSRFToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateSessionToken(tokenString, secret string) (models.Session, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Session{}, err
	}
	if !token.Valid {
		return models.Session{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return models.Session{}, fmt.Errorf("token has no subject")
	}

	return models.Session{
		ID:        claims.Subject,
		Wholesale: claims.Wholesale,
		CSRFToken: claims.CSRF,
		Token:     tokenString,
	}, nil
}
