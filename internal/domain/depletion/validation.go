package depletion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// StockInput datos crudos del flujo "agregar stock". Punteros = campo omitido.
type StockInput struct {
	Name         string
	Quantity     *decimal.Decimal
	Unit         string
	DurationDays *int
	ExpiresOn    *time.Time // alternativa a DurationDays: fecha estimada de agotamiento
}

// ValidStock datos normalizados tras la validación.
type ValidStock struct {
	Name         string
	Quantity     decimal.Decimal
	Unit         string
	DurationDays int
}

// ValidateStockInput valida todos los campos y devuelve un ValidationError con mensajes por campo.
// Si viene ExpiresOn, la duración se deriva como max(1, ceil(días hasta la fecha)).
func ValidateStockInput(in StockInput, now time.Time) (ValidStock, error) {
	verr := domain.NewValidationError()
	out := ValidStock{
		Name: strings.TrimSpace(in.Name),
		Unit: strings.TrimSpace(in.Unit),
	}

	if out.Name == "" {
		verr.Add("name", "el nombre es obligatorio (ej. Arroz, Leche, Huevos)")
	}

	if in.Quantity == nil {
		verr.Add("quantity", "la cantidad es obligatoria (ej. 5, 2.5)")
	} else if msg := QuantityProblem(*in.Quantity); msg != "" {
		verr.Add("quantity", msg)
	} else {
		out.Quantity = *in.Quantity
	}

	if out.Unit == "" {
		verr.Add("unit", "la unidad es obligatoria (ej. kg, litros, paquetes)")
	}

	switch {
	case in.ExpiresOn != nil:
		if in.ExpiresOn.Before(now) {
			verr.Add("expires_on", "la fecha de vencimiento no puede estar en el pasado")
			break
		}
		days := max(1, DaysRemaining(*in.ExpiresOn, now))
		if msg := DurationProblem(days); msg != "" {
			verr.Add("expires_on", msg)
			break
		}
		out.DurationDays = days
	case in.DurationDays == nil:
		verr.Add("duration_days", "la duración es obligatoria: indique días o una fecha de vencimiento")
	default:
		if msg := DurationProblem(*in.DurationDays); msg != "" {
			verr.Add("duration_days", msg)
		} else {
			out.DurationDays = *in.DurationDays
		}
	}

	return out, verr.OrNil()
}

// DurationProblem devuelve el mensaje de error para una duración fuera de [1, 3650], o "".
func DurationProblem(days int) string {
	switch {
	case days < entity.MinDurationDays:
		return "la duración debe ser de al menos 1 día"
	case days > entity.MaxDurationDays:
		return "la duración no puede superar 10 años (3650 días)"
	}
	return ""
}

// QuantityProblem devuelve el mensaje de error para una cantidad no positiva, o "".
func QuantityProblem(q decimal.Decimal) string {
	if !q.GreaterThan(decimal.Zero) {
		return "la cantidad debe ser mayor que cero"
	}
	return ""
}
