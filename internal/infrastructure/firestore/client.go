// Package firestore implementa repository.DocumentStore sobre Cloud Firestore, el backend
// original de la app móvil. Las suscripciones usan Query.Snapshots.
package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/jhoicas/despensa-api/pkg/config"
)

// NewClient inicializa el cliente. CredentialsFile vacío = Application Default Credentials.
func NewClient(ctx context.Context, cfg config.FirebaseConfig) (*gfs.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gfs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("crear cliente firestore (proyecto %s): %w", cfg.ProjectID, err)
	}
	return client, nil
}
