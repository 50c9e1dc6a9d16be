package alerts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/infrastructure/alerts"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

type recorder struct {
	mu        sync.Mutex
	delivered []entity.AlertContent
	err       error
}

func (r *recorder) Deliver(_ context.Context, c entity.AlertContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, c)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.delivered)
}

func TestSchedule_PasadoDisparaDeInmediato(t *testing.T) {
	rec := &recorder{}
	svc := alerts.NewTimerService(rec, logger.Nop(), true)
	t.Cleanup(svc.Close)

	h, err := svc.Schedule(context.Background(), entity.AlertContent{UserID: "u1", Title: "Stock agotado"}, time.Now().Add(-time.Hour))

	require.NoError(t, err)
	assert.NotEmpty(t, h)
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, svc.Pending())
	assert.ErrorIs(t, svc.Cancel(context.Background(), h), alerts.ErrUnknownHandle, "ya disparada")
}

func TestCancel_EvitaLaEntrega(t *testing.T) {
	rec := &recorder{}
	svc := alerts.NewTimerService(rec, logger.Nop(), true)
	t.Cleanup(svc.Close)

	h, err := svc.Schedule(context.Background(), entity.AlertContent{UserID: "u1"}, time.Now().Add(50*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 1, svc.Pending())

	require.NoError(t, svc.Cancel(context.Background(), h))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, 0, svc.Pending())
}

func TestSchedule_DeshabilitadoEsPermisoDenegado(t *testing.T) {
	svc := alerts.NewTimerService(&recorder{}, logger.Nop(), false)

	h, err := svc.Schedule(context.Background(), entity.AlertContent{}, time.Now().Add(time.Hour))

	assert.ErrorIs(t, err, alerts.ErrPermissionDenied)
	assert.Empty(t, h)
}

func TestClose_DetienePendientesYRechazaNuevas(t *testing.T) {
	rec := &recorder{}
	svc := alerts.NewTimerService(rec, logger.Nop(), true)
	_, err := svc.Schedule(context.Background(), entity.AlertContent{}, time.Now().Add(30*time.Millisecond))
	require.NoError(t, err)

	svc.Close()

	_, err = svc.Schedule(context.Background(), entity.AlertContent{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestFire_ErrorDeEntregaNoRompe(t *testing.T) {
	rec := &recorder{err: errors.New("fcm caído")}
	svc := alerts.NewTimerService(rec, logger.Nop(), true)
	t.Cleanup(svc.Close)

	_, err := svc.Schedule(context.Background(), entity.AlertContent{}, time.Now())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, svc.Pending())
}
