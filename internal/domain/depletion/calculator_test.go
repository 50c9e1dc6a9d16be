package depletion_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// NewTimeline
// ──────────────────────────────────────────────────────────────────────────────

func TestNewTimeline_DiezDias(t *testing.T) {
	tl := depletion.NewTimeline(t0, 10)

	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), tl.DepletionAt)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), tl.ReminderAt)
	assert.Equal(t, 2, tl.RemindDaysBefore)
	assert.Equal(t, 10, tl.DurationDays)
}

func TestNewTimeline_UnDiaRecuerdaAlInicio(t *testing.T) {
	tl := depletion.NewTimeline(t0, 1)

	assert.Equal(t, t0.Add(24*time.Hour), tl.DepletionAt)
	assert.Equal(t, t0, tl.ReminderAt, "con 1 día el recordatorio cae en el inicio")
	assert.Equal(t, 1, tl.RemindDaysBefore)
}

func TestNewTimeline_PropiedadesParaTodoElRango(t *testing.T) {
	for _, d := range []int{1, 2, 3, 7, 30, 365, 3650} {
		tl := depletion.NewTimeline(t0, d)
		assert.Equal(t, t0.Add(time.Duration(d)*depletion.Day), tl.DepletionAt, "días=%d", d)
		assert.False(t, tl.ReminderAt.Before(tl.StartAt), "recordatorio >= inicio, días=%d", d)
		assert.True(t, tl.ReminderAt.Before(tl.DepletionAt), "recordatorio < agotamiento, días=%d", d)
		assert.Equal(t, min(2, d), tl.RemindDaysBefore, "días=%d", d)
	}
}

func TestTimeline_ApplyCopiaCampos(t *testing.T) {
	tl := depletion.NewTimeline(t0, 5)
	item := tl.Apply(entity.StockItem{Name: "Arroz"})

	assert.Equal(t, "Arroz", item.Name)
	assert.Equal(t, 5, item.ExpectedDurationDays)
	assert.Equal(t, tl.StartAt, item.StartAt)
	assert.Equal(t, tl.DepletionAt, item.DepletionAt)
	assert.Equal(t, tl.ReminderAt, item.ReminderAt)
	assert.True(t, item.HasTimeline())
}

// ──────────────────────────────────────────────────────────────────────────────
// DaysRemaining / Classify
// ──────────────────────────────────────────────────────────────────────────────

func TestDaysRemaining_DiaParcialCuentaCompleto(t *testing.T) {
	dep := t0.Add(10 * depletion.Day)

	assert.Equal(t, 10, depletion.DaysRemaining(dep, t0))
	assert.Equal(t, 1, depletion.DaysRemaining(dep, dep.Add(-time.Hour)))
	assert.Equal(t, 1, depletion.DaysRemaining(dep, dep.Add(-time.Millisecond)))
	assert.Equal(t, 2, depletion.DaysRemaining(dep, dep.Add(-depletion.Day-time.Millisecond)))
}

func TestDaysRemaining_EnElInstanteYDespues(t *testing.T) {
	dep := t0.Add(3 * depletion.Day)

	assert.Equal(t, 0, depletion.DaysRemaining(dep, dep))
	assert.Equal(t, 0, depletion.DaysRemaining(dep, dep.Add(time.Hour)), "ceil(-1/24) = 0")
	assert.Equal(t, -1, depletion.DaysRemaining(dep, dep.Add(depletion.Day)))
	assert.Equal(t, -1, depletion.DaysRemaining(dep, dep.Add(depletion.Day+time.Hour)))
}

func TestDaysRemaining_MonotonoEnElTiempo(t *testing.T) {
	dep := t0.Add(7 * depletion.Day)
	prev := depletion.DaysRemaining(dep, t0)
	for now := t0; now.Before(dep.Add(3 * depletion.Day)); now = now.Add(5 * time.Hour) {
		d := depletion.DaysRemaining(dep, now)
		assert.LessOrEqual(t, d, prev, "no debe crecer al avanzar el tiempo")
		prev = d
	}
}

func TestClassify_Umbrales(t *testing.T) {
	cases := []struct {
		days int
		want depletion.Status
	}{
		{-5, depletion.StatusExpired},
		{0, depletion.StatusExpired},
		{1, depletion.StatusLow},
		{2, depletion.StatusLow},
		{3, depletion.StatusOK},
		{100, depletion.StatusOK},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, depletion.Classify(c.days), "días=%d", c.days)
	}
}

func TestStatus_AlertKind(t *testing.T) {
	assert.True(t, depletion.StatusLow.NeedsAlert())
	assert.True(t, depletion.StatusExpired.NeedsAlert())
	assert.False(t, depletion.StatusOK.NeedsAlert())
	assert.False(t, depletion.StatusUnknown.NeedsAlert())
	assert.Equal(t, entity.AlertExpired, depletion.StatusExpired.AlertKind())
	assert.Equal(t, entity.AlertLow, depletion.StatusLow.AlertKind())
}

// ──────────────────────────────────────────────────────────────────────────────
// Evaluate: escenarios de un ítem de 10 días
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_EscenariosDiezDias(t *testing.T) {
	item := depletion.NewTimeline(t0, 10).Apply(entity.StockItem{Name: "Leche"})

	ev := depletion.Evaluate(item, t0.Add(5*depletion.Day))
	assert.Equal(t, depletion.Evaluation{Status: depletion.StatusOK, DaysRemaining: 5, Known: true}, ev)

	ev = depletion.Evaluate(item, t0.Add(8*depletion.Day+12*time.Hour))
	assert.Equal(t, 2, ev.DaysRemaining)
	assert.Equal(t, depletion.StatusLow, ev.Status)

	ev = depletion.Evaluate(item, t0.Add(10*depletion.Day+time.Hour))
	assert.Equal(t, 0, ev.DaysRemaining)
	assert.Equal(t, depletion.StatusExpired, ev.Status)
}

func TestEvaluate_SinAgotamientoEsDesconocido(t *testing.T) {
	ev := depletion.Evaluate(entity.StockItem{Name: "Pendiente"}, t0)

	assert.False(t, ev.Known)
	assert.Equal(t, depletion.StatusUnknown, ev.Status)
}

func TestIsLowStock_UsaMinimoEntreDosYDuracion(t *testing.T) {
	one := depletion.NewTimeline(t0, 1).Apply(entity.StockItem{})
	ten := depletion.NewTimeline(t0, 10).Apply(entity.StockItem{})

	assert.True(t, depletion.IsLowStock(one, t0), "1 día restante con duración 1")
	assert.False(t, depletion.IsLowStock(ten, t0))
	assert.True(t, depletion.IsLowStock(ten, t0.Add(8*depletion.Day)))
	assert.False(t, depletion.IsLowStock(entity.StockItem{}, t0))
}
