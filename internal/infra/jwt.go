// README: Local HS256 verifier for Supabase-issued access tokens (AUTH_PROVIDER=jwt).
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// supabaseClaims mirrors the access token payload issued by Supabase auth.
type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) (TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt auth requires SUPABASE_JWT_SECRET")
	}
	return &jwtVerifier{secret: []byte(secret)}, nil
}

func (v *jwtVerifier) VerifyIDToken(_ context.Context, idToken string) (*AuthToken, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrUnauthenticated
	}

	claims := &supabaseClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	return &AuthToken{
		UID:   claims.Subject,
		Email: claims.Email,
		Claims: map[string]interface{}{
			"role":  claims.Role,
			"email": claims.Email,
		},
	}, nil
}
