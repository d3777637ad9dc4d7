package export

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/apperr"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var ErrUnsupportedFormat = apperr.New(apperr.KindValidation, "UNSUPPORTED_EXPORT_FORMAT", "export format must be csv, xlsx or pdf")

// ParseFormat accepts csv, xlsx (or excel) and pdf, case-insensitive. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Table is fully computed data; renderers only lay it out.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a table into file bytes.
type Renderer interface {
	Render(table Table, format Format) ([]byte, error)
}

type renderer struct {
	pdfOrientation string
}

// NewRenderer returns the CSV/XLSX/PDF renderer.
func NewRenderer() Renderer {
	return &renderer{pdfOrientation: "L"}
}

func (r *renderer) Render(table Table, format Format) ([]byte, error) {
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(table.Headers))
		}
	}

	switch format {
	case FormatCSV:
		return renderCSV(table)
	case FormatXLSX:
		return renderXLSX(table)
	case FormatPDF:
		return renderPDF(table, r.pdfOrientation)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}
