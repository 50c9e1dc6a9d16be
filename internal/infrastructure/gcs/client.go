package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/jhoicas/despensa-api/pkg/config"
)

// NewClient inicializa el cliente de Storage con las credenciales de Firebase (o ADC).
func NewClient(ctx context.Context, cfg config.FirebaseConfig) (*storage.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("crear cliente storage: %w", err)
	}
	return client, nil
}
