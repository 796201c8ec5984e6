// README: Supabase token verifier; asks the hosted auth service who owns the bearer token.
package infra

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type supabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(url, serviceRoleKey string) (TokenVerifier, error) {
	client, err := supabase.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &supabaseVerifier{client: client}, nil
}

// VerifyIDToken does a network round trip; the gotrue client has no context support.
func (v *supabaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*AuthToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := v.client.Auth.WithToken(idToken).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return &AuthToken{
		UID:    user.ID.String(),
		Email:  user.Email,
		Claims: map[string]interface{}{"role": user.Role},
	}, nil
}
