package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// AuthVerifier valida ID tokens de Firebase Auth; el usuario de la despensa es el UID.
type AuthVerifier struct {
	client *auth.Client
}

func NewAuthVerifier(client *auth.Client) *AuthVerifier {
	return &AuthVerifier{client: client}
}

func (v *AuthVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("firebase: token inválido: %w", err)
	}
	return tok.UID, nil
}
