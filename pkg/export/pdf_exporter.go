package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 190.0
	defaultFont = "Arial"
)

// PDFExporter renders datasets into a tabular A4 document.
type PDFExporter struct {
	fontFamily string
	fontPath   string
}

// PDFOption customises a PDFExporter.
type PDFOption func(*PDFExporter)

// WithUTF8Font registers a TrueType font so non-Latin text (Thai names and
// subjects) renders. Without it the core Arial font is used.
func WithUTF8Font(family, path string) PDFOption {
	return func(e *PDFExporter) {
		if family != "" && path != "" {
			e.fontFamily = family
			e.fontPath = path
		}
	}
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter(opts ...PDFOption) *PDFExporter {
	e := &PDFExporter{fontFamily: defaultFont}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render creates a PDF document with an optional title and a table body. Extra
// lines are printed under the title.
func (e *PDFExporter) Render(data Dataset, title string, lines ...string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	if e.fontPath != "" {
		pdf.AddUTF8Font(e.fontFamily, "", e.fontPath)
		pdf.AddUTF8Font(e.fontFamily, "B", e.fontPath)
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(e.fontFamily, "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	}
	if len(lines) > 0 {
		pdf.SetFont(e.fontFamily, "", 10)
		for _, line := range lines {
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	pdf.SetFont(e.fontFamily, "B", 10)
	colWidth := pageWidth / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(e.fontFamily, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
