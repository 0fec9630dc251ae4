package format

import (
	"bytes"
	"strings"

	"github.com/datakit-io/datakit/document"
	"github.com/go-pdf/fpdf"
)

// pdfCodec renders a structured document to PDF. PDF is write-mostly:
// decoding does not parse page content back into sections, it returns
// the bytes as an opaque document.
type pdfCodec struct{}

var _ DocumentCodec = (*pdfCodec)(nil)

func (p *pdfCodec) EncodeDocument(d *document.Document) ([]byte, error) {
	if d.IsRaw() {
		return d.Raw, nil
	}
	if err := d.Validate(); err != nil {
		return nil, invalidPayload("pdf: %v", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if d.Title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, d.Title, "", "L", false)
		pdf.Ln(4)
	}
	for _, s := range d.Sections {
		renderSection(pdf, s)
	}
	if d.Body != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, d.Body, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, invalidPayload("pdf: render: %v", err)
	}
	return buf.Bytes(), nil
}

func (p *pdfCodec) DecodeDocument(data []byte) (*document.Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, invalidPayload("pdf: missing %%PDF header")
	}
	return document.FromBytes(data), nil
}

func renderSection(pdf *fpdf.Fpdf, s document.Section) {
	if s.Heading != "" {
		size := 14.0 - float64(s.Level)
		if size < 11 {
			size = 11
		}
		pdf.SetFont("Helvetica", "B", size)
		pdf.MultiCell(0, 7, s.Heading, "", "L", false)
		pdf.Ln(2)
	}
	if s.Text != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, s.Text, "", "L", false)
		pdf.Ln(2)
	}
	if len(s.Table) > 0 {
		renderTable(pdf, s.Table)
		pdf.Ln(2)
	}
}

func renderTable(pdf *fpdf.Fpdf, rows [][]string) {
	width := 170.0 / float64(len(rows[0]))
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		for _, cell := range row {
			pdf.CellFormat(width, 6, strings.TrimSpace(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
