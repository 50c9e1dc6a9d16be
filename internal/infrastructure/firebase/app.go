// Package firebase conecta Firebase Auth (verificación de ID tokens) y Cloud Messaging
// (entrega de alertas de stock al dispositivo).
package firebase

import (
	"context"
	"fmt"

	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/jhoicas/despensa-api/pkg/config"
)

// NewApp inicializa la app de Firebase. CredentialsFile vacío = Application Default Credentials.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*fb.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: inicializar app (proyecto %s): %w", cfg.ProjectID, err)
	}
	return app, nil
}
