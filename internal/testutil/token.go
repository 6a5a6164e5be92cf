// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"time"

	"ngabarin/gateway/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Token signs a token the way the account service issues them
func Token(secret, userID, email, uniqueID string) (string, error) {
	claims := &utils.Claims{
		UserID:   userID,
		Email:    email,
		UniqueID: uniqueID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ExpiredToken signs a token that expired a minute ago
func ExpiredToken(secret, userID string) (string, error) {
	claims := &utils.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
