// README: Token verifier contract shared by the Supabase, JWT and Firebase implementations.
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated is returned by verifiers for any token they reject.
var ErrUnauthenticated = errors.New("unauthenticated")

// AuthToken holds the verified token data used by downstream middleware.
type AuthToken struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*AuthToken, error)
}

// VerifierOptions carries the settings for every supported auth provider.
type VerifierOptions struct {
	Provider               string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	FirebaseProjectID      string
	FirebaseCredentials    string
}

// NewVerifier builds the verifier selected by opts.Provider.
func NewVerifier(ctx context.Context, opts VerifierOptions) (TokenVerifier, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "supabase":
		if opts.SupabaseURL == "" || opts.SupabaseServiceRoleKey == "" {
			return nil, fmt.Errorf("supabase auth requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
		return NewSupabaseVerifier(opts.SupabaseURL, opts.SupabaseServiceRoleKey)
	case "jwt":
		return NewJWTVerifier(opts.SupabaseJWTSecret)
	case "firebase":
		return NewFirebaseVerifier(ctx, opts.FirebaseProjectID, opts.FirebaseCredentials)
	}
	return nil, fmt.Errorf("unsupported auth provider %q", opts.Provider)
}
