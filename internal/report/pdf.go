// Package report renders inventory reports as PDF documents.
package report

import (
	"fmt"
	"strconv"
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

	"github.com/itec-nfc/inventario/internal/model"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Column widths on the 12-column grid.
var columns = []struct {
	title string
	size  int
	align align.Type
}{
	{"Producto", 3, align.Left},
	{"N° de serie", 3, align.Left},
	{"Ubicación", 2, align.Left},
	{"Detalle", 3, align.Left},
	{"Cant.", 1, align.Right},
}

// LocationPDF renders the location report generated at the given time.
func LocationPDF(rows []model.LocationRow, at time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ubicación de inventario", true).
		WithAuthor("inventario", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(at))
	m.AddRows(summaryRow(rows))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	if len(rows) == 0 {
		m.AddRows(text.NewRow(8, "Sin productos registrados.", props.Text{
			Size: 8, Align: align.Center, Color: colorGray, Top: 2,
		}))
	}
	for _, r := range rows {
		m.AddRows(tableRow(r))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating location pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("Ubicación de inventario", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 2,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Color: colorGray, Top: 4,
			}),
		),
	)
}

func summaryRow(rows []model.LocationRow) core.Row {
	counts := Summarize(rows)
	cols := make([]core.Col, 0, len(Kinds))
	for _, k := range Kinds {
		cols = append(cols, col.New(3).Add(text.New(
			fmt.Sprintf("%s: %d", k, counts[k]),
			props.Text{Size: 8, Color: colorGray, Top: 1},
		)))
	}
	return row.New(7).Add(cols...)
}

func tableHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.title, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: colorPrimary, Top: 2,
		})))
	}
	return row.New(8).Add(cols...)
}

func tableRow(r model.LocationRow) core.Row {
	values := []string{r.ProductName, r.Serial, string(r.Kind), r.Detail, strconv.Itoa(r.Quantity)}
	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(values[i], props.Text{
			Size: 7.5, Align: c.align, Top: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

// Kinds lists the location kinds in report order.
var Kinds = []model.LocationKind{
	model.LocationAssigned,
	model.LocationMaintenance,
	model.LocationWarehouse,
	model.LocationStore,
}

// Summarize adds up the units per location kind.
func Summarize(rows []model.LocationRow) map[model.LocationKind]int {
	counts := make(map[model.LocationKind]int, len(Kinds))
	for _, r := range rows {
		counts[r.Kind] += r.Quantity
	}
	return counts
}
