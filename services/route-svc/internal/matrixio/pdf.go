package matrixio

import (
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// pdfMaxRoutes caps the route table; the rest is summarised in one line.
const pdfMaxRoutes = 40

var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	sectionStyle = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  8,
		Align: align.Center,
		Color: darkGrayColor,
		Top:   9,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}

	poisonedTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Style: fontstyle.Bold,
		Color: dangerColor,
	}
)

// WritePDF renders a one-document route report.
func WritePDF(w io.Writer, r *Report) error {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, r)
	addPDFSummary(m, r)
	addPDFRoutes(m, r)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}

	_, err = w.Write(doc.GetBytes())
	return err
}

func addPDFHeader(m core.Maroto, r *Report) {
	m.AddRow(14,
		text.NewCol(12, r.title(), titleStyle),
	)
	m.AddRow(4,
		line.NewCol(12),
	)
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Algorithm: %s", r.Algorithm), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", r.generatedAt().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(6)
}

func addPDFSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, sectionStyle),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(4)
}

func addPDFSummary(m core.Maroto, r *Report) {
	addPDFSection(m, "Query")

	cards := []struct{ label, value string }{
		{"Source vertex", fmt.Sprintf("%d", r.Source+1)},
		{"Max route length", fmt.Sprintf("%d", r.MaxRouteLength)},
		{"Vertices", fmt.Sprintf("%d", r.Stats.VertexCount)},
		{"Edges", fmt.Sprintf("%d", r.Stats.EdgeCount)},
	}

	var cols []core.Col
	for _, card := range cards {
		cols = append(cols,
			col.New(3).Add(
				text.New(card.value, metricValueStyle),
				text.New(card.label, metricLabelStyle),
			),
		)
	}
	m.AddRow(20, cols...)
}

func addPDFRoutes(m core.Maroto, r *Report) {
	addPDFSection(m, "Routes")

	if len(r.Routes) == 0 {
		m.AddRow(8, text.NewCol(12, NoRoutesMessage, tableCellTextStyle))
		return
	}

	m.AddRow(8,
		text.NewCol(2, "Final vertex", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Length", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(8, "Route", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	for i, route := range r.Routes {
		if i >= pdfMaxRoutes {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more routes", len(r.Routes)-pdfMaxRoutes), smallStyle),
			)
			break
		}

		routeText := FormatRoute(route.Route)
		lengthStyle := tableCellTextStyle
		if route.Poisoned() {
			routeText = "negative cycle"
			lengthStyle = poisonedTextStyle
		}

		m.AddRow(6,
			text.NewCol(2, fmt.Sprintf("%d", route.Vertex+1), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, route.Distance.String(), lengthStyle).WithStyle(tableCellStyle),
			text.NewCol(8, routeText, tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}
