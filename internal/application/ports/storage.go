package ports

import (
	"context"

	"github.com/jhoicas/despensa-api/internal/application/dto"
)

// ImageStore almacenamiento de fotos de stock. Devuelve la URL pública del objeto.
type ImageStore interface {
	Upload(ctx context.Context, userID, itemID, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// StockReportGenerator genera el PDF de la despensa.
type StockReportGenerator interface {
	GenerateStockReport(report *dto.StockReportDTO) ([]byte, error)
}
