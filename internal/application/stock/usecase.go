// Package stock implementa los flujos de stock del usuario: agregar, editar, reabastecer,
// borrar, foto, listados derivados y reporte PDF.
package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/alerting"
	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/application/reminder"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// Deps dependencias del caso de uso. Images y Reports pueden ser nil (funcionalidad deshabilitada).
type Deps struct {
	Stock         repository.StockRepository
	Lists         repository.ListRepository
	Engine        *alerting.Engine
	Scheduler     *reminder.Scheduler
	Notifier      ports.UserNotifier
	Images        ports.ImageStore
	Reports       ports.StockReportGenerator
	MaxImageBytes int
	Log           *logger.Logger
	Now           func() time.Time
}

// UseCase casos de uso de stock.
type UseCase struct {
	stock         repository.StockRepository
	lists         repository.ListRepository
	engine        *alerting.Engine
	scheduler     *reminder.Scheduler
	notifier      ports.UserNotifier
	images        ports.ImageStore
	reports       ports.StockReportGenerator
	maxImageBytes int
	log           *logger.Logger
	now           func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &UseCase{
		stock:         d.Stock,
		lists:         d.Lists,
		engine:        d.Engine,
		scheduler:     d.Scheduler,
		notifier:      d.Notifier,
		images:        d.Images,
		reports:       d.Reports,
		maxImageBytes: d.MaxImageBytes,
		log:           d.Log.Component("stock"),
		now:           now,
	}
}

// AddStock valida, guarda el ítem con su línea de tiempo y luego, como efectos secundarios
// de mejor esfuerzo, lo enlaza a la lista elegida y programa el recordatorio.
func (uc *UseCase) AddStock(ctx context.Context, userID string, in dto.AddStockRequest) (*dto.AddStockResponse, error) {
	now := uc.now()
	valid, err := depletion.ValidateStockInput(depletion.StockInput{
		Name:         in.Name,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		DurationDays: in.DurationDays,
		ExpiresOn:    in.ExpiresOn,
	}, now)
	if err != nil {
		return nil, uc.fail(ctx, userID, "Revisa los datos del stock", err)
	}

	item := depletion.NewTimeline(now, valid.DurationDays).Apply(entity.StockItem{
		UserID:   userID,
		Name:     valid.Name,
		Quantity: valid.Quantity,
		Unit:     valid.Unit,
	})
	if err := uc.stock.Create(ctx, &item); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo guardar el stock", domain.WrapStoreWrite("crear stock", err))
	}

	linkedID := uc.linkToList(ctx, userID, strings.TrimSpace(in.ListID), item)

	handle, scheduled := uc.scheduler.Schedule(ctx, reminder.Request{
		UserID:      userID,
		StockItemID: item.ID,
		Label:       item.Name,
		RemindAt:    item.ReminderAt,
	})
	if scheduled {
		if err := uc.stock.SetReminder(ctx, userID, item.ID, handle); err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Str("stock_item_id", item.ID).Msg("no se pudo guardar el handle del recordatorio")
		} else {
			item.ReminderID = handle
		}
	}

	detail := fmt.Sprintf("«%s» se agotará el %s.", item.Name, item.DepletionAt.Format("02/01/2006"))
	if !scheduled {
		detail += " No se pudo programar el recordatorio."
	}
	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Stock agregado", detail)

	return &dto.AddStockResponse{
		Item:              dto.NewStockItemDTO(item, depletion.Evaluate(item, now)),
		ReminderScheduled: scheduled,
		LinkedListItemID:  linkedID,
	}, nil
}

// linkToList busca en la lista un ítem con el mismo nombre (sin distinguir mayúsculas) y le
// copia los campos espejo; si no existe, lo crea. Cualquier fallo solo se registra.
func (uc *UseCase) linkToList(ctx context.Context, userID, listID string, item entity.StockItem) string {
	if listID == "" || uc.lists == nil {
		return ""
	}
	l := uc.log.ForUser(userID)
	if _, err := uc.lists.GetList(ctx, userID, listID); err != nil {
		l.Warn().Err(err).Str("list_id", listID).Msg("lista para enlazar stock no disponible")
		return ""
	}
	items, err := uc.lists.Items(ctx, userID, listID)
	if err != nil {
		l.Warn().Err(err).Str("list_id", listID).Msg("no se pudieron leer los ítems de la lista")
		return ""
	}
	for _, li := range items {
		if !entity.SameName(li.Name, item.Name) {
			continue
		}
		if err := uc.lists.ApplyMirror(ctx, userID, listID, li.ID, entity.MirrorStock(item)); err != nil {
			l.Warn().Err(err).Str("list_item_id", li.ID).Msg("no se pudo actualizar el ítem de lista enlazado")
			return ""
		}
		return li.ID
	}
	li := entity.NewListItemFromStock(listID, item)
	if err := uc.lists.CreateItem(ctx, userID, &li); err != nil {
		l.Warn().Err(err).Str("list_id", listID).Msg("no se pudo crear el ítem de lista enlazado")
		return ""
	}
	return li.ID
}

// Restock reinicia la línea de tiempo desde ahora (opcionalmente con nueva cantidad/duración),
// resuelve las notificaciones pendientes y reemplaza el recordatorio: cancelar y luego programar.
func (uc *UseCase) Restock(ctx context.Context, userID, id string, in dto.RestockRequest) (*dto.StockItemDTO, error) {
	item, err := uc.stock.Get(ctx, userID, id)
	if err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo reabastecer", err)
	}

	verr := domain.NewValidationError()
	if in.Quantity != nil {
		if msg := depletion.QuantityProblem(*in.Quantity); msg != "" {
			verr.Add("quantity", msg)
		} else {
			item.Quantity = *in.Quantity
		}
	}
	days := item.ExpectedDurationDays
	if in.DurationDays != nil {
		days = *in.DurationDays
	}
	if msg := depletion.DurationProblem(days); msg != "" {
		verr.Add("duration_days", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, uc.fail(ctx, userID, "Revisa los datos del stock", err)
	}

	now := uc.now()
	updated := depletion.NewTimeline(now, days).Apply(*item)
	if err := uc.stock.Update(ctx, &updated); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo reabastecer", domain.WrapStoreWrite("reabastecer", err))
	}
	if err := uc.engine.Resolve(ctx, userID, id); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Str("stock_item_id", id).Msg("no se pudieron limpiar las notificaciones del ítem reabastecido")
	}

	updated.ReminderID = uc.replaceReminder(ctx, item.ReminderID, updated)

	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Stock reabastecido",
		fmt.Sprintf("«%s» se agotará el %s.", updated.Name, updated.DepletionAt.Format("02/01/2006")))
	d := dto.NewStockItemDTO(updated, depletion.Evaluate(updated, now))
	return &d, nil
}

// Update edita nombre, cantidad, unidad o duración. Un cambio de duración recalcula la línea
// de tiempo desde el inicio original y reemplaza el recordatorio.
func (uc *UseCase) Update(ctx context.Context, userID, id string, in dto.UpdateStockRequest) (*dto.StockItemDTO, error) {
	item, err := uc.stock.Get(ctx, userID, id)
	if err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo actualizar el stock", err)
	}
	old := *item

	verr := domain.NewValidationError()
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name == "" {
			verr.Add("name", "el nombre es obligatorio (ej. Arroz, Leche, Huevos)")
		} else {
			item.Name = name
		}
	}
	if in.Quantity != nil {
		if msg := depletion.QuantityProblem(*in.Quantity); msg != "" {
			verr.Add("quantity", msg)
		} else {
			item.Quantity = *in.Quantity
		}
	}
	if in.Unit != nil {
		if unit := strings.TrimSpace(*in.Unit); unit == "" {
			verr.Add("unit", "la unidad es obligatoria (ej. kg, litros, paquetes)")
		} else {
			item.Unit = unit
		}
	}
	if in.DurationDays != nil {
		if msg := depletion.DurationProblem(*in.DurationDays); msg != "" {
			verr.Add("duration_days", msg)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, uc.fail(ctx, userID, "Revisa los datos del stock", err)
	}

	timelineChanged := in.DurationDays != nil && *in.DurationDays != item.ExpectedDurationDays
	if timelineChanged {
		start := item.StartAt
		if start.IsZero() {
			start = uc.now()
		}
		*item = depletion.NewTimeline(start, *in.DurationDays).Apply(*item)
	}
	if err := uc.stock.Update(ctx, item); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo actualizar el stock", domain.WrapStoreWrite("actualizar stock", err))
	}
	if timelineChanged || item.Name != old.Name {
		item.ReminderID = uc.replaceReminder(ctx, old.ReminderID, *item)
	}

	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Stock actualizado", fmt.Sprintf("«%s» actualizado.", item.Name))
	d := dto.NewStockItemDTO(*item, depletion.Evaluate(*item, uc.now()))
	return &d, nil
}

// replaceReminder cancela el handle viejo, programa el nuevo y persiste el resultado.
// Devuelve el handle vigente ("" si no se pudo programar).
func (uc *UseCase) replaceReminder(ctx context.Context, old entity.ReminderHandle, item entity.StockItem) entity.ReminderHandle {
	handle, ok := uc.scheduler.Replace(ctx, old, reminder.Request{
		UserID:      item.UserID,
		StockItemID: item.ID,
		Label:       item.Name,
		RemindAt:    item.ReminderAt,
	})
	if !ok {
		handle = ""
	}
	if err := uc.stock.SetReminder(ctx, item.UserID, item.ID, handle); err != nil {
		uc.log.Warn().Err(err).Str("user_id", item.UserID).Str("stock_item_id", item.ID).Msg("no se pudo guardar el handle del recordatorio")
	}
	return handle
}

// Delete cancela el recordatorio y borra el ítem junto con sus notificaciones.
func (uc *UseCase) Delete(ctx context.Context, userID, id string) error {
	item, err := uc.stock.Get(ctx, userID, id)
	if err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar el stock", err)
	}
	if err := uc.engine.PurgeStockItem(ctx, userID, *item); err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar el stock", err)
	}
	if item.ImageURL != "" && uc.images != nil {
		if err := uc.images.Delete(ctx, item.ImageURL); err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Str("stock_item_id", id).Msg("no se pudo borrar la foto del ítem")
		}
	}
	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Stock eliminado", fmt.Sprintf("«%s» eliminado.", item.Name))
	return nil
}

// Get devuelve un ítem con sus valores derivados.
func (uc *UseCase) Get(ctx context.Context, userID, id string) (*dto.StockItemDTO, error) {
	item, err := uc.stock.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d := dto.NewStockItemDTO(*item, depletion.Evaluate(*item, uc.now()))
	return &d, nil
}

// List devuelve todos los ítems del usuario con días restantes y clasificación recalculados.
func (uc *UseCase) List(ctx context.Context, userID string) ([]dto.StockItemDTO, error) {
	items, err := uc.stock.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.StockItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewStockItemDTO(it, depletion.Evaluate(it, now)))
	}
	return out, nil
}

// LowStock ítems con días restantes <= min(2, duración).
func (uc *UseCase) LowStock(ctx context.Context, userID string) ([]dto.StockItemDTO, error) {
	items, err := uc.stock.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]dto.StockItemDTO, 0)
	for _, it := range items {
		if depletion.IsLowStock(it, now) {
			out = append(out, dto.NewStockItemDTO(it, depletion.Evaluate(it, now)))
		}
	}
	return out, nil
}

// fail emite el único aviso al usuario de una operación fallida y devuelve err.
func (uc *UseCase) fail(ctx context.Context, userID, title string, err error) error {
	uc.notifier.Notify(ctx, userID, entity.NoticeError, title, userMessage(err))
	return err
}

func userMessage(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "El ítem no existe o fue eliminado."
	default:
		return "Verifica tu conexión e intenta de nuevo."
	}
}
