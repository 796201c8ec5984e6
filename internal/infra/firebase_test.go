package infra

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFirebaseClient struct {
	token *auth.Token
	err   error
	calls int
}

func (s *stubFirebaseClient) VerifyIDToken(_ context.Context, _ string) (*auth.Token, error) {
	s.calls++
	return s.token, s.err
}

func TestNewFirebaseVerifierRequiresProject(t *testing.T) {
	_, err := NewFirebaseVerifier(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrMissingFirebaseProject)

	_, err = NewVerifier(context.Background(), VerifierOptions{Provider: "firebase"})
	assert.ErrorIs(t, err, ErrMissingFirebaseProject)
}

func TestFirebaseVerifierMapsClaims(t *testing.T) {
	client := &stubFirebaseClient{token: &auth.Token{
		UID:    "fb-user-1",
		Claims: map[string]interface{}{"email": "ana@example.com"},
	}}
	v := &firebaseVerifier{client: client}

	tok, err := v.VerifyIDToken(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "fb-user-1", tok.UID)
	assert.Equal(t, "ana@example.com", tok.Email)
	assert.Equal(t, "authenticated", tok.Claims["role"])
	_, mutated := client.token.Claims["role"]
	assert.False(t, mutated)
}

func TestFirebaseVerifierKeepsCustomRole(t *testing.T) {
	v := &firebaseVerifier{client: &stubFirebaseClient{token: &auth.Token{
		UID:    "fb-admin",
		Claims: map[string]interface{}{"role": "admin"},
	}}}

	tok, err := v.VerifyIDToken(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "admin", tok.Claims["role"])
	assert.Empty(t, tok.Email)
}

func TestFirebaseVerifierRejects(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		client  *stubFirebaseClient
		upcalls int
	}{
		{"empty token", "  ", &stubFirebaseClient{}, 0},
		{"sdk error", "bad", &stubFirebaseClient{err: errors.New("ID token has expired")}, 1},
		{"missing uid", "tok", &stubFirebaseClient{token: &auth.Token{}}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &firebaseVerifier{client: tc.client}
			_, err := v.VerifyIDToken(context.Background(), tc.raw)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, tc.upcalls, tc.client.calls)
		})
	}
}
