package depletion_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
)

func ptrDec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptrInt(n int) *int { return &n }

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "se esperaba ValidationError, llegó %v", err)
	return verr.Fields
}

func TestValidateStockInput_Valido(t *testing.T) {
	out, err := depletion.ValidateStockInput(depletion.StockInput{
		Name:         "  Arroz ",
		Quantity:     ptrDec("2.5"),
		Unit:         " kg",
		DurationDays: ptrInt(10),
	}, t0)

	require.NoError(t, err)
	assert.Equal(t, "Arroz", out.Name)
	assert.Equal(t, "kg", out.Unit)
	assert.True(t, out.Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 10, out.DurationDays)
}

func TestValidateStockInput_CamposObligatorios(t *testing.T) {
	_, err := depletion.ValidateStockInput(depletion.StockInput{Name: "   "}, t0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	f := fieldsOf(t, err)
	assert.Contains(t, f, "name")
	assert.Contains(t, f, "quantity")
	assert.Contains(t, f, "unit")
	assert.Contains(t, f, "duration_days")
}

func TestValidateStockInput_RangosInvalidos(t *testing.T) {
	cases := []struct {
		nombre string
		qty    string
		days   int
		campo  string
	}{
		{"cantidad cero", "0", 5, "quantity"},
		{"cantidad negativa", "-1", 5, "quantity"},
		{"duración cero", "1", 0, "duration_days"},
		{"duración excesiva", "1", 3651, "duration_days"},
	}
	for _, c := range cases {
		t.Run(c.nombre, func(t *testing.T) {
			_, err := depletion.ValidateStockInput(depletion.StockInput{
				Name: "Leche", Quantity: ptrDec(c.qty), Unit: "l", DurationDays: ptrInt(c.days),
			}, t0)
			f := fieldsOf(t, err)
			assert.Len(t, f, 1)
			assert.Contains(t, f, c.campo)
		})
	}
}

func TestValidateStockInput_LimitesAceptados(t *testing.T) {
	for _, d := range []int{1, 3650} {
		_, err := depletion.ValidateStockInput(depletion.StockInput{
			Name: "Sal", Quantity: ptrDec("1"), Unit: "kg", DurationDays: ptrInt(d),
		}, t0)
		assert.NoError(t, err, "días=%d", d)
	}
}

func TestValidateStockInput_FechaDeriveDuracion(t *testing.T) {
	exp := t0.Add(3*depletion.Day + 2*time.Hour)
	out, err := depletion.ValidateStockInput(depletion.StockInput{
		Name: "Yogur", Quantity: ptrDec("4"), Unit: "unidades", ExpiresOn: &exp,
	}, t0)

	require.NoError(t, err)
	assert.Equal(t, 4, out.DurationDays, "ceil(3d2h) = 4")
}

func TestValidateStockInput_FechaHoyDaUnDia(t *testing.T) {
	out, err := depletion.ValidateStockInput(depletion.StockInput{
		Name: "Pan", Quantity: ptrDec("1"), Unit: "unidad", ExpiresOn: &t0,
	}, t0)

	require.NoError(t, err)
	assert.Equal(t, 1, out.DurationDays)
}

func TestValidateStockInput_FechaPasadaSeRechaza(t *testing.T) {
	past := t0.Add(-time.Hour)
	_, err := depletion.ValidateStockInput(depletion.StockInput{
		Name: "Pan", Quantity: ptrDec("1"), Unit: "unidad", ExpiresOn: &past,
	}, t0)

	f := fieldsOf(t, err)
	assert.Contains(t, f, "expires_on")
}
