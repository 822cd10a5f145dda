package pdf

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/pharmily/pharmily-api/internal/model"
)

const (
	fontFamily = "Times"
	lineHeight = 10.0
	gap        = 5.0
)

// Renderer lays out a prescription document on A4 pages.
type Renderer struct {
	pageSize string
}

func NewRenderer() *Renderer {
	return &Renderer{pageSize: "A4"}
}

// Render writes the document as PDF to w.
func (r *Renderer) Render(w io.Writer, doc *model.PrescriptionDocument) error {
	p := fpdf.New("P", "mm", r.pageSize, "")
	tr := p.UnicodeTranslatorFromDescriptor("")

	p.SetHeaderFunc(func() {
		// letterhead on the first page only
		if p.PageNo() != 1 || len(doc.Header.Lines) == 0 {
			return
		}
		p.SetFont(fontFamily, "B", 16)
		p.CellFormat(0, lineHeight, tr(doc.Header.Lines[0]), "", 1, "C", false, 0, "")
		p.SetFont(fontFamily, "B", 12)
		for _, line := range doc.Header.Lines[1:] {
			p.CellFormat(0, 8, tr(line), "", 1, "C", false, 0, "")
		}
		rule(p)
	})
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont(fontFamily, "I", 12)
		p.CellFormat(0, lineHeight, tr(doc.Signature), "", 0, "C", false, 0, "")
	})

	p.AddPage()

	p.SetFont(fontFamily, "I", 12)
	for _, line := range doc.DateLocation.Lines {
		p.CellFormat(0, lineHeight, tr(line), "", 1, "R", false, 0, "")
	}

	p.Ln(gap)
	p.SetFont(fontFamily, "", 12)
	for _, item := range doc.Items {
		for _, line := range item.Lines {
			p.CellFormat(0, lineHeight, tr(line), "", 1, "C", false, 0, "")
		}
		rule(p)
	}

	p.SetFont(fontFamily, "", 12)
	rule(p)
	for _, line := range doc.Footer.Lines {
		p.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func rule(p *fpdf.Fpdf) {
	p.Ln(gap)
	p.CellFormat(0, 0, "", "T", 1, "C", false, 0, "")
	p.Ln(gap)
}
