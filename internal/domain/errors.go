package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrUnavailable  = errors.New("servicio no disponible")
)

// ValidationError agrupa errores por campo. Se rechaza antes de cualquier escritura.
// errors.Is(err, ErrInvalidInput) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError crea un error vacío listo para acumular campos.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add registra el mensaje de un campo (el primero gana).
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// HasErrors indica si se acumuló algún campo.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil devuelve nil cuando no hay errores, para retornar directamente.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StoreWriteError falla de escritura en el almacén (permisos, red, datos malformados).
// Se informa al usuario; nunca se reintenta en silencio.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("almacén: %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// SchedulerError falla al programar o cancelar una alerta. Nunca hace fallar al llamador.
type SchedulerError struct {
	Op  string
	Err error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("recordatorios: %s: %v", e.Op, e.Err)
}

func (e *SchedulerError) Unwrap() error { return e.Err }

// SubscriptionError falla de una suscripción en vivo; la vista derivada se congela.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("suscripción %s: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// WrapStoreWrite envuelve err como StoreWriteError salvo que ya sea un error de dominio conocido.
func WrapStoreWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrDuplicate) {
		return err
	}
	var sw *StoreWriteError
	if errors.As(err, &sw) {
		return err
	}
	return &StoreWriteError{Op: op, Err: err}
}
