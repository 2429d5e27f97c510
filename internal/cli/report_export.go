package cli

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/emilstricker/regnemetoden/internal/report"
)

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
	pdfOverColor   = props.Color{Red: 190, Green: 30, Blue: 30}
)

// renderReportPDF writes the target-vs-actual history to outputPath.
func renderReportPDF(r report.Report, outputPath string) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	// Document header
	m.AddRow(14,
		text.NewCol(12, "Regnemetoden", props.Text{
			Style: fontstyle.Bold,
			Size:  16,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("%s -> %s in %d days, %s to %s",
			formatKg(r.Goal.StartWeight), formatKg(r.Goal.TargetWeight), r.Goal.NumberOfDays,
			r.Goal.StartDate.Format("2006-01-02"), r.Through.Format("2006-01-02")), props.Text{
			Size:  12,
			Color: &pdfMutedColor,
		}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(4) // spacer

	header := props.Text{Style: fontstyle.Bold, Size: 9, Color: &pdfHeaderColor}
	headerRight := header
	headerRight.Align = align.Right
	m.AddRow(7,
		text.NewCol(1, "Day", header),
		text.NewCol(3, "Date", header),
		text.NewCol(2, "Target", headerRight),
		text.NewCol(2, "Weight", headerRight),
		text.NewCol(2, "Eaten", headerRight),
		text.NewCol(2, "Left", headerRight),
	)

	for _, row := range r.Rows {
		m.AddRow(6, pdfCols(row)...)
	}

	// Totals footer
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(8,
		text.NewCol(6, fmt.Sprintf("%d days, %d weighed, %d over budget", r.Totals.Days, r.Totals.Weighed, r.Totals.OverBudget), props.Text{
			Size:  10,
			Color: &pdfHeaderColor,
		}),
		text.NewCol(6, fmt.Sprintf("%s eaten of %s", formatGrams(r.Totals.Consumed), formatGrams(r.Totals.Allowance)), props.Text{
			Size:  10,
			Align: align.Right,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(10,
		text.NewCol(6, "Progress", props.Text{
			Style: fontstyle.Bold,
			Size:  12,
			Color: &pdfHeaderColor,
		}),
		text.NewCol(6, fmt.Sprintf("%s lost, %s to go", formatKg(r.Progress.TotalLoss), formatKg(r.Progress.RemainingWeight)), props.Text{
			Style: fontstyle.Bold,
			Size:  12,
			Align: align.Right,
			Color: &pdfHeaderColor,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generating PDF: %w", err)
	}

	return doc.Save(outputPath)
}

func pdfCols(row report.Row) []core.Col {
	cell := props.Text{Size: 9}
	right := props.Text{Size: 9, Align: align.Right}
	muted := props.Text{Size: 9, Align: align.Right, Color: &pdfMutedColor}

	weight, left, leftProps := "-", "-", muted
	if row.Weight != nil {
		weight = formatKg(*row.Weight)
		left = formatGrams(row.Remaining)
		leftProps = right
		if row.Remaining < 0 {
			leftProps.Color = &pdfOverColor
		}
	}

	return []core.Col{
		text.NewCol(1, fmt.Sprintf("%d", row.Day), cell),
		text.NewCol(3, row.Date.Format("Mon 2006-01-02"), cell),
		text.NewCol(2, formatKg(row.Target), right),
		text.NewCol(2, weight, right),
		text.NewCol(2, formatGrams(row.Consumed), right),
		text.NewCol(2, left, leftProps),
	}
}
