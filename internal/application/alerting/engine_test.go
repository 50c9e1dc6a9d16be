package alerting_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
	"github.com/jhoicas/despensa-api/internal/application/reminder"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/internal/infrastructure/docrepo"
	"github.com/jhoicas/despensa-api/internal/infrastructure/memstore"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const uid = "u1"

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeAlerts struct {
	mu        sync.Mutex
	seq       int
	scheduled []entity.AlertContent
	cancelled []string
}

func (f *fakeAlerts) Schedule(_ context.Context, c entity.AlertContent, _ time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.scheduled = append(f.scheduled, c)
	return fmt.Sprintf("h%d", f.seq), nil
}

func (f *fakeAlerts) Cancel(_ context.Context, h string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, h)
	return nil
}

type fixture struct {
	engine *alerting.Engine
	stock  *docrepo.StockRepository
	notifs *docrepo.NotificationRepository
	alerts *fakeAlerts
}

// newFixture arma el motor sobre memstore. wrap permite interceptar el repositorio de notificaciones.
func newFixture(t *testing.T, wrap func(repository.NotificationRepository) repository.NotificationRepository) *fixture {
	t.Helper()
	store := memstore.New(memstore.WithSyncDelivery())
	f := &fixture{
		stock:  docrepo.NewStockRepository(store),
		notifs: docrepo.NewNotificationRepository(store),
		alerts: &fakeAlerts{},
	}
	var notifs repository.NotificationRepository = f.notifs
	if wrap != nil {
		notifs = wrap(notifs)
	}
	sched := reminder.NewScheduler(f.alerts, logger.Nop(), nil, 0).WithClock(func() time.Time { return t0 })
	f.engine = alerting.NewEngine(notifs, f.stock, sched, logger.Nop(), nil)
	return f
}

func (f *fixture) addStock(t *testing.T, name string, days int) entity.StockItem {
	t.Helper()
	item := depletion.NewTimeline(t0, days).Apply(entity.StockItem{
		UserID: uid, Name: name, Quantity: decimal.NewFromInt(5), Unit: "kg",
	})
	require.NoError(t, f.stock.Create(context.Background(), &item))
	return item
}

func (f *fixture) all(t *testing.T) []entity.Notification {
	t.Helper()
	list, err := f.notifs.List(context.Background(), uid)
	require.NoError(t, err)
	return list
}

// ──────────────────────────────────────────────────────────────────────────────
// Evaluate
// ──────────────────────────────────────────────────────────────────────────────

// Ítem de 2 días: en T0+2d está agotado, una notificación con isExpired y 0 días.
func TestEvaluate_EscenarioAgotado(t *testing.T) {
	f := newFixture(t, nil)
	item := f.addStock(t, "Harina", 2)

	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(2*depletion.Day))

	require.NoError(t, err)
	require.NotNil(t, n)
	assert.True(t, n.IsExpired)
	assert.Equal(t, 0, n.DaysRemaining)
	assert.Equal(t, "«Harina» se agotó. Es hora de reabastecer.", n.Message)

	all := f.all(t)
	require.Len(t, all, 1)
	assert.Equal(t, item.ID, all[0].StockItemID)
	assert.Equal(t, "Harina", all[0].ItemName)
	assert.False(t, all[0].Seen)

	require.Len(t, f.alerts.scheduled, 1, "alerta inmediata")
	assert.True(t, f.alerts.scheduled[0].Urgent)
}

// Ítem de 10 días: en T0+8d quedan 2 días, clasificación bajo.
func TestEvaluate_EscenarioBajo(t *testing.T) {
	f := newFixture(t, nil)
	item := f.addStock(t, "Leche", 10)

	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(8*depletion.Day))

	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsExpired)
	assert.Equal(t, 2, n.DaysRemaining)
	assert.Equal(t, "A «Leche» le quedan 2 días.", n.Message)
}

func TestEvaluate_OkNoEscribe(t *testing.T) {
	f := newFixture(t, nil)
	item := f.addStock(t, "Arroz", 10)

	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(depletion.Day))

	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.all(t))
	assert.Empty(t, f.alerts.scheduled)
}

func TestEvaluate_SinAgotamientoNoAlerta(t *testing.T) {
	f := newFixture(t, nil)

	n, err := f.engine.Evaluate(context.Background(), uid, entity.StockItem{ID: "x", Name: "Pendiente"}, t0)

	require.NoError(t, err)
	assert.Nil(t, n)
}

// Dos evaluaciones seguidas con el mismo snapshot producen una sola notificación.
func TestEvaluate_Idempotente(t *testing.T) {
	f := newFixture(t, nil)
	item := f.addStock(t, "Leche", 10)
	now := t0.Add(9 * depletion.Day)

	first, err := f.engine.Evaluate(context.Background(), uid, item, now)
	require.NoError(t, err)
	second, err := f.engine.Evaluate(context.Background(), uid, item, now)
	require.NoError(t, err)

	assert.NotNil(t, first)
	assert.Nil(t, second)
	assert.Len(t, f.all(t), 1)
	assert.Len(t, f.alerts.scheduled, 1)
}

// Con una no vista existente, pasar de bajo a agotado no crea otra (disparo por flanco).
func TestEvaluate_NoVistaExistenteSuprimeTransicion(t *testing.T) {
	f := newFixture(t, nil)
	item := f.addStock(t, "Pan", 10)

	_, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(8*depletion.Day))
	require.NoError(t, err)
	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(11*depletion.Day))
	require.NoError(t, err)

	assert.Nil(t, n)
	assert.Len(t, f.all(t), 1)
}

// Un almacén con índice único rechaza la segunda creación concurrente: no es un error.
type racingNotifications struct {
	repository.NotificationRepository
}

func (r racingNotifications) FindUnseenByStockItem(context.Context, string, string) (*entity.Notification, error) {
	return nil, nil
}

func (r racingNotifications) Create(context.Context, string, *entity.Notification) error {
	return fmt.Errorf("insert: %w", domain.ErrDuplicate)
}

func TestEvaluate_DuplicadoDelAlmacenSeTolera(t *testing.T) {
	f := newFixture(t, func(r repository.NotificationRepository) repository.NotificationRepository {
		return racingNotifications{NotificationRepository: r}
	})
	item := f.addStock(t, "Queso", 1)

	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(depletion.Day))

	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.alerts.scheduled, "sin alerta si no creó el registro")
}

type brokenNotifications struct {
	repository.NotificationRepository
}

func (brokenNotifications) FindUnseenByStockItem(context.Context, string, string) (*entity.Notification, error) {
	return nil, nil
}

func (brokenNotifications) Create(context.Context, string, *entity.Notification) error {
	return errors.New("permiso denegado")
}

func TestEvaluate_FalloDeEscrituraEsStoreWriteError(t *testing.T) {
	f := newFixture(t, func(r repository.NotificationRepository) repository.NotificationRepository {
		return brokenNotifications{NotificationRepository: r}
	})
	item := f.addStock(t, "Queso", 1)

	_, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(depletion.Day))

	var sw *domain.StoreWriteError
	assert.True(t, errors.As(err, &sw))
}

func TestEvaluate_ItemBorradoNoCreaNotificacion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	item := f.addStock(t, "Leche", 2)
	require.NoError(t, f.stock.Delete(ctx, uid, item.ID))

	n, err := f.engine.Evaluate(ctx, uid, item, t0.Add(2*depletion.Day))

	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.all(t))
	assert.Empty(t, f.alerts.scheduled)
}

// El ítem se borra entre la comprobación y la escritura de la notificación.
type purgingNotifications struct {
	repository.NotificationRepository
	purge func()
}

func (p purgingNotifications) Create(ctx context.Context, userID string, n *entity.Notification) error {
	p.purge()
	return p.NotificationRepository.Create(ctx, userID, n)
}

func TestEvaluate_ItemBorradoDuranteLaEscrituraNoDejaHuerfanas(t *testing.T) {
	var f *fixture
	var item entity.StockItem
	f = newFixture(t, func(r repository.NotificationRepository) repository.NotificationRepository {
		return purgingNotifications{NotificationRepository: r, purge: func() {
			require.NoError(t, f.stock.Delete(context.Background(), uid, item.ID))
		}}
	})
	item = f.addStock(t, "Queso", 1)

	n, err := f.engine.Evaluate(context.Background(), uid, item, t0.Add(depletion.Day))

	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, f.all(t))
	assert.Empty(t, f.alerts.scheduled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Dismiss / DeleteNotification / PurgeStockItem
// ──────────────────────────────────────────────────────────────────────────────

func TestDismiss_BorraStockNotificacionesYCancelaHandle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	item := f.addStock(t, "Leche", 2)
	require.NoError(t, f.stock.SetReminder(ctx, uid, item.ID, "h-guardado"))
	n, err := f.engine.Evaluate(ctx, uid, item, t0.Add(2*depletion.Day))
	require.NoError(t, err)

	require.NoError(t, f.engine.Dismiss(ctx, uid, n.ID))

	_, err = f.stock.Get(ctx, uid, item.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, f.all(t))
	assert.Contains(t, f.alerts.cancelled, "h-guardado")
}

func TestDismiss_ItemYaBorradoSoloLimpiaNotificaciones(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	item := f.addStock(t, "Leche", 2)
	n, err := f.engine.Evaluate(ctx, uid, item, t0.Add(2*depletion.Day))
	require.NoError(t, err)
	require.NoError(t, f.stock.Delete(ctx, uid, item.ID))

	require.NoError(t, f.engine.Dismiss(ctx, uid, n.ID))
	assert.Empty(t, f.all(t))
}

func TestDismiss_NotificacionInexistente(t *testing.T) {
	f := newFixture(t, nil)

	err := f.engine.Dismiss(context.Background(), uid, "nada")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteNotification_NoTocaStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	item := f.addStock(t, "Leche", 2)
	n, err := f.engine.Evaluate(ctx, uid, item, t0.Add(2*depletion.Day))
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteNotification(ctx, uid, n.ID))

	assert.Empty(t, f.all(t))
	_, err = f.stock.Get(ctx, uid, item.ID)
	assert.NoError(t, err)
}

func TestPurgeStockItem_ConNotificacionNoVista(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	item := f.addStock(t, "Café", 10)
	item.ReminderID = "h-recordatorio"
	_, err := f.engine.Evaluate(ctx, uid, item, t0.Add(9*depletion.Day))
	require.NoError(t, err)

	require.NoError(t, f.engine.PurgeStockItem(ctx, uid, item))

	assert.Empty(t, f.all(t))
	items, err := f.stock.List(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{"h-recordatorio"}, f.alerts.cancelled)
}

func TestResolve_BorraSoloNoVistas(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.notifs.Create(ctx, uid, &entity.Notification{StockItemID: "s1", Seen: true}))
	require.NoError(t, f.notifs.Create(ctx, uid, &entity.Notification{StockItemID: "s1"}))
	require.NoError(t, f.notifs.Create(ctx, uid, &entity.Notification{StockItemID: "s2"}))

	require.NoError(t, f.engine.Resolve(ctx, uid, "s1"))

	all := f.all(t)
	require.Len(t, all, 2)
	for _, n := range all {
		assert.False(t, n.StockItemID == "s1" && !n.Seen)
	}
}

func TestMessage_Singular(t *testing.T) {
	assert.Equal(t, "A «Sal» le queda 1 día.", alerting.Message("Sal", 1, false))
}
