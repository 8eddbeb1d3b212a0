package pdf

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/oklog/ulid/v2"
)

// SPCReport is the printable form of a feature chart. Every value is
// preformatted by the caller.
type SPCReport struct {
	ReportNumber string
	GeneratedAt  time.Time

	ProductCode string
	ProductName string
	PlanName    string
	FeatureName string
	Unit        string

	Target string
	USL    string
	LSL    string

	Mean      string
	StdDev    string
	Cpk       string
	OutOfSpec string

	Rows []SPCReportRow
}

type SPCReportRow struct {
	Index        int
	SerialNumber string
	Value        string
	Status       string
	Operator     string
	Timestamp    string
}

var (
	red    = &props.Color{Red: 200, Green: 30, Blue: 30}
	orange = &props.Color{Red: 230, Green: 130, Blue: 0}
	green  = &props.Color{Red: 20, Green: 140, Blue: 60}
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateSPCReport(ctx context.Context, report SPCReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "SPC report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Report number: "+report.ReportNumber, props.Text{Top: 0}),
			text.New("Generated: "+report.GeneratedAt.UTC().Format(time.RFC3339), props.Text{Top: 4}),
			text.New(fmt.Sprintf("Product: %s %s", report.ProductCode, report.ProductName), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Control plan: "+report.PlanName, props.Text{Top: 0}),
			text.New("Feature: "+report.FeatureName, props.Text{Top: 4}),
			text.New("Unit: "+report.Unit, props.Text{Top: 8}),
		),
	)

	m.AddRow(8,
		text.NewCol(12, "Limits", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	m.AddRow(8,
		text.NewCol(4, "Target: "+report.Target, props.Text{Size: 9}),
		text.NewCol(4, "USL: "+report.USL, props.Text{Size: 9}),
		text.NewCol(4, "LSL: "+report.LSL, props.Text{Size: 9}),
	)

	m.AddRow(8,
		text.NewCol(12, "Statistics", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	m.AddRow(8,
		text.NewCol(3, "Mean: "+report.Mean, props.Text{Size: 9}),
		text.NewCol(3, "Std dev: "+report.StdDev, props.Text{Size: 9}),
		text.NewCol(3, "Cpk: "+report.Cpk, props.Text{Size: 9}),
		text.NewCol(3, "Out of spec: "+report.OutOfSpec, props.Text{Size: 9}),
	)

	m.AddRow(10,
		text.NewCol(1, "#", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Serial", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Value", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Operator", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Captured", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	m.AddRow(1, line.NewCol(12))

	for _, row := range report.Rows {
		m.AddRow(7,
			text.NewCol(1, fmt.Sprintf("%d", row.Index), props.Text{Size: 8}),
			text.NewCol(3, row.SerialNumber, props.Text{Size: 8}),
			text.NewCol(2, row.Value, props.Text{Size: 8, Align: align.Right}),
			text.NewCol(2, row.Status, props.Text{Size: 8, Color: statusColor(row.Status)}),
			text.NewCol(2, row.Operator, props.Text{Size: 8}),
			text.NewCol(2, row.Timestamp, props.Text{Size: 7}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func statusColor(status string) *props.Color {
	switch status {
	case "out_of_spec":
		return red
	case "warning":
		return orange
	default:
		return green
	}
}

// NewReportNumber returns a sortable identifier printed on the report.
func NewReportNumber(at time.Time) string {
	return "SPC-" + ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}

// Filename builds the download name for a report.
func Filename(productCode, planName, featureName string, at time.Time) string {
	parts := []string{"spc", productCode, planName, featureName, at.UTC().Format("20060102")}
	return slug.Make(strings.Join(parts, " ")) + ".pdf"
}
