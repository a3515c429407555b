// Package pdf implementa la representación gráfica de los estados de cuenta
// de clientes sincronizados desde Sage.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Proveedor + contacto  │  "ESTADO DE CUENTA" + Fecha │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + id de cliente en Sage                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Documento | Fecha | Vence | Descripción | Montos    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ANTIGÜEDAD: 30 / 60 / 90 / 120+ días + totales             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

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

	"github.com/jhoicas/sage-sync-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoStatementRenderer genera el PDF de un estado de cuenta usando Maroto v2.
type MarotoStatementRenderer struct{}

// NewMarotoStatementRenderer construye el renderer.
func NewMarotoStatementRenderer() *MarotoStatementRenderer { return &MarotoStatementRenderer{} }

// RenderStatementPDF genera el PDF y devuelve sus bytes.
func (g *MarotoStatementRenderer) RenderStatementPDF(_ context.Context, detail *entity.StatementDetail) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estado de Cuenta", true).
		WithAuthor(detail.Provider.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(&detail.Provider, detail.Header.UpdatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(&detail.Header))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(detail.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(agingRow(&detail.Aggregate))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: membrete del proveedor (izq) y título + fecha de corte (der).
func headerRow(provider *entity.ProviderInfo, asOf time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(provider.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Tel: %s   |   Email: %s",
				nonEmpty(provider.Address, "—"),
				nonEmpty(provider.Phone, "—"),
				nonEmpty(provider.Email, "—"),
			), props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("ESTADO DE CUENTA", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Corte: "+asOf.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// customerRow: datos del cliente del ledger.
func customerRow(header *entity.StatementInfo) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   (cliente Sage #%d)", header.CustomerName, header.CustomerID),
				props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de documentos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Documento", 2, align.Left),
		h("Fecha", 1, align.Center),
		h("Vence", 1, align.Center),
		h("Descripción", 3, align.Left),
		h("Total", 2, align.Right),
		h("Pagado", 1, align.Right),
		h("Saldo", 2, align.Right),
	)
}

// tableLineRows: una fila por documento del estado de cuenta.
func tableLineRows(lines []entity.StatementLineRow) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		dueDate := "—"
		if !l.DueDate.IsZero() {
			dueDate = l.DueDate.Format("02/01/2006")
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				l.DocumentNumber,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				l.DocumentDate.Format("02/01/2006"),
				props.Text{Size: 7.5, Align: align.Center, Top: 1},
			)),
			col.New(1).Add(text.New(
				dueDate,
				props.Text{Size: 7.5, Align: align.Center, Top: 1},
			)),
			col.New(3).Add(text.New(
				l.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				l.Total.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				l.Paid.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				l.Outstanding.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// agingRow: buckets de antigüedad + totales, alineados a la derecha.
func agingRow(agg *entity.StatementHeaderAggregate) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(42).Add(
		col.New(4),
		col.New(4).Add(
			label("0-30 días:"),
			label("31-60 días:"),
			label("61-90 días:"),
			label("Más de 90 días:"),
			label("Total pagado:"),
			grandLabel("SALDO PENDIENTE:"),
		),
		col.New(4).Add(
			value(agg.Days30.StringFixed(2)),
			value(agg.Days60.StringFixed(2)),
			value(agg.Days90.StringFixed(2)),
			value(agg.Days120Plus.StringFixed(2)),
			value(agg.TotalPaid.StringFixed(2)),
			grandValue(agg.TotalDue.StringFixed(2)),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
