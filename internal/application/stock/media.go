package stock

import (
	"context"
	"time"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/domain"
	"github.com/jhoicas/despensa-api/internal/domain/depletion"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// SetImage sube la foto del ítem y guarda su URL. La foto anterior se borra en mejor esfuerzo.
func (uc *UseCase) SetImage(ctx context.Context, userID, id, contentType string, data []byte) (*dto.StockItemDTO, error) {
	if uc.images == nil {
		return nil, uc.fail(ctx, userID, "No se pudo subir la foto", domain.ErrUnavailable)
	}
	verr := domain.NewValidationError()
	if !allowedImageTypes[contentType] {
		verr.Add("image", "formato no soportado (jpeg, png o webp)")
	}
	if len(data) == 0 {
		verr.Add("image", "la imagen está vacía")
	} else if uc.maxImageBytes > 0 && len(data) > uc.maxImageBytes {
		verr.Add("image", "la imagen supera el tamaño máximo permitido")
	}
	if err := verr.OrNil(); err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo subir la foto", err)
	}

	item, err := uc.stock.Get(ctx, userID, id)
	if err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo subir la foto", err)
	}
	url, err := uc.images.Upload(ctx, userID, id, contentType, data)
	if err != nil {
		return nil, uc.fail(ctx, userID, "No se pudo subir la foto", domain.WrapStoreWrite("subir foto", err))
	}
	if err := uc.stock.SetImage(ctx, userID, id, url); err != nil {
		if derr := uc.images.Delete(ctx, url); derr != nil {
			uc.log.Warn().Err(derr).Str("url", url).Msg("no se pudo borrar la foto huérfana")
		}
		return nil, uc.fail(ctx, userID, "No se pudo subir la foto", domain.WrapStoreWrite("guardar foto", err))
	}
	if item.ImageURL != "" && item.ImageURL != url {
		if err := uc.images.Delete(ctx, item.ImageURL); err != nil {
			uc.log.Warn().Err(err).Str("url", item.ImageURL).Msg("no se pudo borrar la foto anterior")
		}
	}
	item.ImageURL = url
	uc.notifier.Notify(ctx, userID, entity.NoticeSuccess, "Foto actualizada", "")
	d := dto.NewStockItemDTO(*item, depletion.Evaluate(*item, uc.now()))
	return &d, nil
}

// Report genera el PDF de la despensa con los valores derivados al momento.
func (uc *UseCase) Report(ctx context.Context, userID string) ([]byte, error) {
	if uc.reports == nil {
		return nil, domain.ErrUnavailable
	}
	items, err := uc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := &dto.StockReportDTO{
		UserID:      userID,
		GeneratedAt: uc.now().UTC().Truncate(time.Second),
		Items:       items,
	}
	for _, it := range items {
		switch depletion.Status(it.Status) {
		case depletion.StatusLow:
			report.LowCount++
		case depletion.StatusExpired:
			report.ExpiredCount++
		}
	}
	return uc.reports.GenerateStockReport(report)
}
