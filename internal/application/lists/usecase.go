// Package lists casos de uso de listas de compras y sus ítems.
package lists

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/domain/repository"
	"github.com/jhoicas/despensa-api/pkg/logger"
)

// UseCase casos de uso de listas.
type UseCase struct {
	repo     repository.ListRepository
	notifier ports.UserNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.ListRepository, notifier ports.UserNotifier, log *logger.Logger) *UseCase {
	return &UseCase{repo: repo, notifier: notifier, log: log.Component("lists"), now: time.Now}
}

// CreateList crea una lista vacía.
func (uc *UseCase) CreateList(ctx context.Context, userID string, in dto.CreateListRequest) (*dto.GroceryListDTO, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr := domain.NewValidationError()
		verr.Add("name", "el nombre de la lista es obligatorio")
		return nil, uc.fail(ctx, userID, "No se pudo crear la lista", verr)
	}
	l := entity.GroceryList{Name: name, CreatedAt: uc.now()}
	if err := uc.repo.CreateList(ctx, userID, &l); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo crear la lista", domain.WrapStoreWrite("crear lista", err))
	}
	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Lista creada", name)
	d := dto.NewGroceryListDTO(l, nil)
	return &d, nil
}

// Lists devuelve las listas del usuario con la cantidad de ítems de cada una.
func (uc *UseCase) Lists(ctx context.Context, userID string) ([]dto.GroceryListDTO, error) {
	lists, err := uc.repo.Lists(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GroceryListDTO, 0, len(lists))
	for _, l := range lists {
		items, err := uc.repo.Items(ctx, userID, l.ID)
		if err != nil {
			return nil, err
		}
		d := dto.NewGroceryListDTO(l, items)
		d.Items = nil
		out = append(out, d)
	}
	return out, nil
}

// GetList devuelve la lista con sus ítems.
func (uc *UseCase) GetList(ctx context.Context, userID, listID string) (*dto.GroceryListDTO, error) {
	l, err := uc.repo.GetList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	items, err := uc.repo.Items(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	d := dto.NewGroceryListDTO(*l, items)
	return &d, nil
}

// DeleteList borra primero los ítems y luego la lista (el almacén no borra subcolecciones).
func (uc *UseCase) DeleteList(ctx context.Context, userID, listID string) error {
	l, err := uc.repo.GetList(ctx, userID, listID)
	if err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar la lista", err)
	}
	items, err := uc.repo.Items(ctx, userID, listID)
	if err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar la lista", err)
	}
	for _, li := range items {
		if err := uc.repo.DeleteItem(ctx, userID, listID, li.ID); err != nil {
			return uc.fail(ctx, userID, "No se pudo eliminar la lista", domain.WrapStoreWrite("borrar ítem de lista", err))
		}
	}
	if err := uc.repo.DeleteList(ctx, userID, listID); err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar la lista", domain.WrapStoreWrite("borrar lista", err))
	}
	uc.log.Info().Str("user_id", userID).Str("list_id", listID).Int("items", len(items)).Msg("lista eliminada")
	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Lista eliminada", l.Name)
	return nil
}

// AddItem agrega un ítem a la lista.
func (uc *UseCase) AddItem(ctx context.Context, userID, listID string, in dto.ListItemRequest) (*dto.ListItemDTO, error) {
	if _, err := uc.repo.GetList(ctx, userID, listID); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo agregar el ítem", err)
	}
	li := entity.ListItem{ListID: listID}
	if err := applyItemRequest(&li, in); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo agregar el ítem", err)
	}
	if err := uc.repo.CreateItem(ctx, userID, &li); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo agregar el ítem", domain.WrapStoreWrite("crear ítem de lista", err))
	}
	d := dto.NewListItemDTO(li)
	return &d, nil
}

// UpdateItem actualiza nombre, cantidad, unidad, duración, contador y favorito.
func (uc *UseCase) UpdateItem(ctx context.Context, userID, listID, itemID string, in dto.ListItemRequest) (*dto.ListItemDTO, error) {
	li, err := uc.repo.GetItem(ctx, userID, listID, itemID)
	if err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo actualizar el ítem", err)
	}
	if err := applyItemPatch(li, in); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo actualizar el ítem", err)
	}
	if err := uc.repo.UpdateItem(ctx, userID, li); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo actualizar el ítem", domain.WrapStoreWrite("actualizar ítem de lista", err))
	}
	d := dto.NewListItemDTO(*li)
	return &d, nil
}

// DeleteItem borra un ítem de la lista.
func (uc *UseCase) DeleteItem(ctx context.Context, userID, listID, itemID string) error {
	if err := uc.repo.DeleteItem(ctx, userID, listID, itemID); err != nil {
		return uc.fail(ctx, userID, "No se pudo eliminar el ítem", domain.WrapStoreWrite("borrar ítem de lista", err))
	}
	return nil
}

// applyItemRequest llena un ítem nuevo: cantidad por defecto 1, duración 0 = sin estimar.
func applyItemRequest(li *entity.ListItem, in dto.ListItemRequest) error {
	verr := domain.NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "el nombre es obligatorio")
	}
	q := decimal.NewFromInt(1)
	if in.Quantity != nil {
		q = *in.Quantity
	}
	if msg := depletion.QuantityProblem(q); msg != "" {
		verr.Add("quantity", msg)
	}
	days := 0
	if in.ExpectedDurationDays != nil && *in.ExpectedDurationDays != 0 {
		days = *in.ExpectedDurationDays
		if msg := depletion.DurationProblem(days); msg != "" {
			verr.Add("expected_duration_days", msg)
		}
	}
	if in.CompletedCount != nil && *in.CompletedCount < 0 {
		verr.Add("completed_count", "no puede ser negativo")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	li.Name = name
	li.Quantity = q
	if in.Unit != nil {
		li.Unit = strings.TrimSpace(*in.Unit)
	}
	li.ExpectedDurationDays = days
	if in.CompletedCount != nil {
		li.CompletedCount = *in.CompletedCount
	}
	if in.IsLiked != nil {
		li.IsLiked = *in.IsLiked
	}
	return nil
}

// applyItemPatch aplica solo los campos enviados; el resto (incluidos los espejo del stock
// escritos al agregar stock) se conserva.
func applyItemPatch(li *entity.ListItem, in dto.ListItemRequest) error {
	verr := domain.NewValidationError()
	if in.Quantity != nil {
		if msg := depletion.QuantityProblem(*in.Quantity); msg != "" {
			verr.Add("quantity", msg)
		}
	}
	if in.ExpectedDurationDays != nil && *in.ExpectedDurationDays != 0 {
		if msg := depletion.DurationProblem(*in.ExpectedDurationDays); msg != "" {
			verr.Add("expected_duration_days", msg)
		}
	}
	if in.CompletedCount != nil && *in.CompletedCount < 0 {
		verr.Add("completed_count", "no puede ser negativo")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		li.Name = name
	}
	if in.Quantity != nil {
		li.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		li.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.ExpectedDurationDays != nil {
		li.ExpectedDurationDays = *in.ExpectedDurationDays
	}
	if in.CompletedCount != nil {
		li.CompletedCount = *in.CompletedCount
	}
	if in.IsLiked != nil {
		li.IsLiked = *in.IsLiked
	}
	return nil
}

func (uc *UseCase) fail(ctx context.Context, userID, title string, err error) error {
	detail := "Intenta de nuevo."
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		detail = verr.Error()
	}
	uc.notifier.Notify(ctx, userID, entity.NoticeError, title, detail)
	return err
}
