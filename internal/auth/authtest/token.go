// Package authtest mints session tokens for tests.
package authtest

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/domain"
)

var testSecret = []byte("authtest-secret")

// Token signs a token for subject with the given role expiring at exp.
func Token(subject string, role domain.Role, exp time.Time) string {
	claims := &auth.Claims{
		UserType: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Valid returns a token that expires an hour from now.
func Valid(subject string, role domain.Role) string {
	return Token(subject, role, time.Now().Add(time.Hour))
}

// Expired returns a token that expired a minute ago.
func Expired(subject string, role domain.Role) string {
	return Token(subject, role, time.Now().Add(-time.Minute))
}
