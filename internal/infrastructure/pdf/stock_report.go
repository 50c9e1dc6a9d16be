// Package pdf genera el reporte de la despensa con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Mi despensa            │  Fecha de generación       │
//	│  RESUMEN: total / bajos / agotados                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Cantidad | Se agota | Días | Estado       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/despensa-api/internal/application/dto"
	"github.com/jhoicas/despensa-api/internal/application/ports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 102, Blue: 68}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorLow     = &props.Color{Red: 204, Green: 122, Blue: 0}
	colorExpired = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// StockReportGenerator implementa ports.StockReportGenerator usando Maroto v2.
type StockReportGenerator struct{}

var _ ports.StockReportGenerator = (*StockReportGenerator)(nil)

// NewStockReportGenerator construye el generador.
func NewStockReportGenerator() *StockReportGenerator { return &StockReportGenerator{} }

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *StockReportGenerator) GenerateStockReport(report *dto.StockReportDTO) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Mi despensa", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(report.Items)...)
	if len(report.Items) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("La despensa está vacía.", props.Text{Size: 9, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r *dto.StockReportDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("Mi despensa", props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1}),
		),
		col.New(4).Add(
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 4, Color: colorGray,
			}),
		),
	)
}

func summaryRow(r *dto.StockReportDTO) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Productos: %d   |   Por agotarse: %d   |   Agotados: %d",
			len(r.Items), r.LowCount, r.ExpiredCount,
		), props.Text{Size: 9, Top: 1}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Producto", 4, align.Left),
		h("Cantidad", 2, align.Right),
		h("Se agota", 3, align.Center),
		h("Días", 1, align.Center),
		h("Estado", 2, align.Center),
	)
}

func tableRows(items []dto.StockItemDTO) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, it := range items {
		depletes, days := "—", "—"
		if it.DepletionAt != nil {
			depletes = it.DepletionAt.Format("02/01/2006")
		}
		if it.DaysRemaining != nil {
			days = fmt.Sprintf("%d", *it.DaysRemaining)
		}
		out = append(out, row.New(7).Add(
			col.New(4).Add(text.New(it.Name, props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(it.Quantity.String()+" "+it.Unit, props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New(depletes, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(days, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(statusText(it.Status)),
		))
	}
	return out
}

func statusText(status string) core.Component {
	p := props.Text{Size: 8, Align: align.Center, Top: 1}
	label := "OK"
	switch status {
	case "low":
		label, p.Color, p.Style = "Por agotarse", colorLow, fontstyle.Bold
	case "expired":
		label, p.Color, p.Style = "Agotado", colorExpired, fontstyle.Bold
	case "unknown":
		label, p.Color = "Pendiente", colorGray
	}
	return text.New(label, p)
}
