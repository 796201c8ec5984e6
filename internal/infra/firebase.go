// README: Firebase Admin SDK token verifier (AUTH_PROVIDER=firebase).
package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrMissingFirebaseProject is returned when no project id is configured.
var ErrMissingFirebaseProject = errors.New("firebase auth requires FIREBASE_PROJECT_ID")

// firebaseTokenClient is the slice of *auth.Client the verifier uses.
type firebaseTokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type firebaseVerifier struct {
	client firebaseTokenClient
}

// NewFirebaseVerifier creates a TokenVerifier using the Firebase Admin SDK.
// An empty credentialsFile falls back to application-default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, ErrMissingFirebaseProject
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

// VerifyIDToken maps a Firebase ID token onto the caller shape shared with the
// Supabase verifiers. Firebase has no role claim by default, so signed-in users
// get "authenticated" unless a custom claim says otherwise.
func (v *firebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*AuthToken, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if token.UID == "" {
		return nil, fmt.Errorf("%w: token has no uid", ErrUnauthenticated)
	}
	claims := make(map[string]interface{}, len(token.Claims)+1)
	for k, val := range token.Claims {
		claims[k] = val
	}
	if _, ok := claims["role"].(string); !ok {
		claims["role"] = "authenticated"
	}
	email, _ := claims["email"].(string)
	return &AuthToken{UID: token.UID, Email: email, Claims: claims}, nil
}
