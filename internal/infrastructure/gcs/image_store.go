// Package gcs guarda las fotos de stock en Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"github.com/jhoicas/despensa-api/internal/application/ports"
)

const publicHost = "https://storage.googleapis.com/"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var _ ports.ImageStore = (*ImageStore)(nil)

// ImageStore objetos en users/{uid}/stock/{itemID}/{uuid}.{ext}, servidos por URL pública.
type ImageStore struct {
	client *storage.Client
	bucket string
}

// NewImageStore construye el adaptador sobre un cliente ya inicializado.
func NewImageStore(client *storage.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: strings.TrimSpace(bucket)}
}

// Upload sube la imagen y devuelve su URL pública.
func (s *ImageStore) Upload(ctx context.Context, userID, itemID, contentType string, data []byte) (string, error) {
	if s.client == nil || s.bucket == "" {
		return "", errors.New("gcs: almacenamiento de imágenes no configurado")
	}
	object := ObjectName(userID, itemID, contentType)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: escribir %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: cerrar %s: %w", object, err)
	}
	return publicHost + s.bucket + "/" + object, nil
}

// Delete borra el objeto de una URL propia. URLs de otro bucket u objetos ya borrados no son error.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	object, ok := s.objectOf(url)
	if !ok || s.client == nil {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(object).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("gcs: borrar %s: %w", object, err)
}

func (s *ImageStore) objectOf(url string) (string, bool) {
	prefix := publicHost + s.bucket + "/"
	if s.bucket == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// ObjectName ruta del objeto para una foto nueva del ítem.
func ObjectName(userID, itemID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("users/%s/stock/%s/%s%s", userID, itemID, uuid.NewString(), ext)
}
