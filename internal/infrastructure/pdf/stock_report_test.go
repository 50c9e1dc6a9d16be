package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/infrastructure/pdf"
)

func TestGenerateStockReport_ProduceUnPDF(t *testing.T) {
	dep := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	days := 2
	report := &dto.StockReportDTO{
		UserID:      "u1",
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Items: []dto.StockItemDTO{
			{ID: "a", Name: "Leche", Quantity: decimal.NewFromInt(2), Unit: "l", DepletionAt: &dep, DaysRemaining: &days, Status: "low"},
			{ID: "b", Name: "Arroz", Quantity: decimal.NewFromInt(1), Unit: "kg", Status: "unknown"},
		},
		LowCount: 1,
	}

	out, err := pdf.NewStockReportGenerator().GenerateStockReport(report)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateStockReport_Nil(t *testing.T) {
	_, err := pdf.NewStockReportGenerator().GenerateStockReport(nil)
	assert.Error(t, err)
}
