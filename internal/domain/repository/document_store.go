package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Document documento del almacén: ID dentro de su colección, ruta completa y campos.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// Filter filtro de igualdad sobre un campo de primer nivel.
type Filter struct {
	Field string
	Value any
}

// Where atajo para construir un Filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Snapshot estado completo de una colección en un instante. Cada entrega reemplaza a la anterior.
type Snapshot struct {
	Collection string
	Docs       []Document
	ReadAt     time.Time
}

// Unsubscribe detiene una suscripción. Debe ser idempotente.
type Unsubscribe func()

// DocumentStore puerto del almacén de documentos jerárquico (users/{uid}/...).
// Las escrituras pueden fallar por permisos o red; las suscripciones entregan snapshots
// completos tras cada cambio y reportan errores por onError.
type DocumentStore interface {
	Get(ctx context.Context, path string) (*Document, error)
	List(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Create agrega un documento con ID generado y devuelve el ID.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Update mezcla los campos dados en un documento existente (ErrNotFound si no existe).
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete borra el documento; borrar uno inexistente no es error.
	Delete(ctx context.Context, path string) error
	// Subscribe entrega el snapshot inicial y uno nuevo tras cada cambio de la colección.
	Subscribe(ctx context.Context, collection string, onSnapshot func(Snapshot), onError func(error)) (Unsubscribe, error)
	Close() error
}

// Rutas del modelo de datos por usuario.

func UserRoot(userID string) string {
	return "users/" + userID
}

func StockCollection(userID string) string {
	return UserRoot(userID) + "/stock"
}

func NotificationsCollection(userID string) string {
	return UserRoot(userID) + "/notifications"
}

func ListsCollection(userID string) string {
	return UserRoot(userID) + "/lists"
}

func ListItemsCollection(userID, listID string) string {
	return ListsCollection(userID) + "/" + listID + "/items"
}

// DocPath une colección e ID.
func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SplitDocPath separa la ruta de un documento en colección e ID.
func SplitDocPath(path string) (collection, id string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("ruta de documento inválida %q", path)
	}
	// colecciones tienen un número impar de segmentos; documentos, par
	if strings.Count(path, "/")%2 == 0 {
		return "", "", fmt.Errorf("ruta de documento inválida %q", path)
	}
	return path[:i], path[i+1:], nil
}
