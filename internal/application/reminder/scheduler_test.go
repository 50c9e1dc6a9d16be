package reminder_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/application/reminder"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fake del servicio de alertas: registra las llamadas en orden
// ──────────────────────────────────────────────────────────────────────────────

type call struct {
	op     string // schedule | cancel
	handle string
	at     time.Time
	c      entity.AlertContent
}

type fakeAlerts struct {
	mu         sync.Mutex
	calls      []call
	seq        int
	failSched  bool
	failCancel bool
}

var _ ports.LocalAlertService = (*fakeAlerts)(nil)

func (f *fakeAlerts) Schedule(_ context.Context, c entity.AlertContent, at time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSched {
		return "", errors.New("permiso denegado")
	}
	f.seq++
	h := fmt.Sprintf("h%d", f.seq)
	f.calls = append(f.calls, call{op: "schedule", handle: h, at: at, c: c})
	return h, nil
}

func (f *fakeAlerts) Cancel(_ context.Context, h string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "cancel", handle: h})
	if f.failCancel {
		return errors.New("handle desconocido")
	}
	return nil
}

var now0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newScheduler(f *fakeAlerts) *reminder.Scheduler {
	return reminder.NewScheduler(f, logger.Nop(), nil, 0).WithClock(func() time.Time { return now0 })
}

// ──────────────────────────────────────────────────────────────────────────────
// Schedule
// ──────────────────────────────────────────────────────────────────────────────

func TestSchedule_FuturoSeRespeta(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)
	at := now0.Add(48 * time.Hour)

	h, ok := s.Schedule(context.Background(), reminder.Request{UserID: "u1", StockItemID: "s1", Label: "Arroz", RemindAt: at})

	require.True(t, ok)
	assert.Equal(t, entity.ReminderHandle("h1"), h)
	require.Len(t, f.calls, 1)
	assert.Equal(t, at, f.calls[0].at)
	assert.Equal(t, "Stock bajo", f.calls[0].c.Title)
	assert.Equal(t, entity.PriorityNormal, f.calls[0].c.Priority)
}

func TestSchedule_PasadoOAhoraSeMueveCincoMinutos(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)

	_, ok := s.Schedule(context.Background(), reminder.Request{UserID: "u1", StockItemID: "s1", RemindAt: now0})
	require.True(t, ok)
	_, ok = s.Schedule(context.Background(), reminder.Request{UserID: "u1", StockItemID: "s2", RemindAt: now0.Add(-72 * time.Hour)})
	require.True(t, ok)

	assert.Equal(t, now0.Add(5*time.Minute), f.calls[0].at)
	assert.Equal(t, now0.Add(5*time.Minute), f.calls[1].at)
}

func TestSchedule_UrgenteUsaTextoDeAgotado(t *testing.T) {
	c := reminder.Content(reminder.Request{StockItemID: "s1", Label: "Leche", Urgent: true})

	assert.Equal(t, "Stock agotado", c.Title)
	assert.Contains(t, c.Body, "«Leche» se agotó")
	assert.Equal(t, entity.PriorityHigh, c.Priority)
	assert.Equal(t, string(entity.AlertExpired), c.Data["kind"])
	assert.Equal(t, "s1", c.Data["stockItemId"])
}

func TestSchedule_FalloDevuelveVacioSinPanic(t *testing.T) {
	f := &fakeAlerts{failSched: true}
	s := newScheduler(f)

	h, ok := s.Schedule(context.Background(), reminder.Request{UserID: "u1", StockItemID: "s1", RemindAt: now0.Add(time.Hour)})

	assert.False(t, ok)
	assert.Empty(t, h)
	_, tracked := s.Tracked("u1", "s1")
	assert.False(t, tracked)
}

func TestFireNow_NoAplicaAnticipacion(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)

	_, ok := s.FireNow(context.Background(), reminder.Request{UserID: "u1", Label: "Pan", Urgent: true})

	require.True(t, ok)
	assert.Equal(t, now0, f.calls[0].at)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel / Replace
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_ErroresSeDescartan(t *testing.T) {
	f := &fakeAlerts{failCancel: true}
	s := newScheduler(f)

	assert.NotPanics(t, func() { s.Cancel(context.Background(), "inexistente") })
	s.Cancel(context.Background(), "")

	require.Len(t, f.calls, 1, "handle vacío no llama al servicio")
}

func TestReplace_CancelaAntesDeProgramar(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)
	ctx := context.Background()
	req := reminder.Request{UserID: "u1", StockItemID: "s1", Label: "Arroz", RemindAt: now0.Add(24 * time.Hour)}

	first, ok := s.Schedule(ctx, req)
	require.True(t, ok)

	second, ok := s.Replace(ctx, first, req)
	require.True(t, ok)

	require.Len(t, f.calls, 3)
	assert.Equal(t, "schedule", f.calls[0].op)
	assert.Equal(t, call{op: "cancel", handle: string(first)}, f.calls[1])
	assert.Equal(t, "schedule", f.calls[2].op)
	assert.NotEqual(t, first, second)

	tracked, ok := s.Tracked("u1", "s1")
	require.True(t, ok)
	assert.Equal(t, second, tracked)
}

func TestReplace_CancelaTambienElHandleRegistrado(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)
	ctx := context.Background()
	req := reminder.Request{UserID: "u1", StockItemID: "s1", RemindAt: now0.Add(time.Hour)}

	live, _ := s.Schedule(ctx, req)
	// el documento guarda un handle viejo distinto (p. ej. escritura del handle que falló)
	_, ok := s.Replace(ctx, "viejo", req)
	require.True(t, ok)

	var cancelled []string
	for _, c := range f.calls {
		if c.op == "cancel" {
			cancelled = append(cancelled, c.handle)
		}
	}
	assert.Equal(t, []string{"viejo", string(live)}, cancelled)
}

func TestFireNow_NoReemplazaElRecordatorioRegistrado(t *testing.T) {
	f := &fakeAlerts{}
	s := newScheduler(f)
	ctx := context.Background()

	live, _ := s.Schedule(ctx, reminder.Request{UserID: "u1", StockItemID: "s1", RemindAt: now0.Add(time.Hour)})
	s.FireNow(ctx, reminder.Request{UserID: "u1", StockItemID: "s1", Urgent: true})

	tracked, ok := s.Tracked("u1", "s1")
	require.True(t, ok)
	assert.Equal(t, live, tracked)
}
