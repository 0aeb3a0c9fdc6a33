package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"exclusioncheck/internal/screening/models"
)

const (
	reportTitle = "Exclusion Verification Report"
	pageMargin  = 14.0
	footerSpace = 20.0
	lineHeight  = 6.0
)

var (
	colorTitle  = [3]int{66, 56, 202}
	colorMuted  = [3]int{100, 100, 100}
	colorRule   = [3]int{220, 220, 220}
	colorHeader = [3]int{67, 56, 202}
	colorStripe = [3]int{245, 245, 250}
)

// databaseColumns are the widths of the database table on an A4 page.
var databaseColumns = []struct {
	title string
	width float64
}{
	{"Database", 48},
	{"Status", 24},
	{"Search Date", 30},
	{"Details", 80},
}

// PDF renders one page group per result in input order. The footer carries
// "Page X of Y" where Y is the final page count of the whole document.
func PDF(results []models.OverallResult, generatedAt time.Time) ([]byte, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, footerSpace)
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("exclusion-check", true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(w.footer)

	generated := fmt.Sprintf("Generated on: %s at %s", formatDate(generatedAt), generatedAt.Format(timeLayout))
	for _, r := range results {
		w.result(r, generated)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFFilename is the download name for a PDF export made at now.
func PDFFilename(now time.Time) string {
	return "verification-report-" + now.Format(fileDate) + ".pdf"
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	// tr converts UTF-8 to the code page of the core fonts
	tr func(string) string
}

func (w *pdfWriter) footer() {
	w.pdf.SetY(-15)
	w.pdf.SetFont("Helvetica", "", 9)
	w.pdf.SetTextColor(150, 150, 150)
	w.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb} - %s", w.pdf.PageNo(), reportTitle),
		"", 0, "C", false, 0, "")
}

func (w *pdfWriter) result(r models.OverallResult, generated string) {
	pdf := w.pdf
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(colorTitle[0], colorTitle[1], colorTitle[2])
	pdf.CellFormat(0, 9, reportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 6, w.tr(generated), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	w.section("Subject Information")
	w.field("Full Name:", strings.TrimSpace(r.FirstName+" "+r.LastName))
	w.field("Date of Birth:", formatDOB(r.DateOfBirth))
	w.field("Identification:", identification(r))
	w.field("Status:", strings.ToUpper(string(r.Status)))
	w.field("Verification Date:", formatDate(r.CheckDate))
	pdf.Ln(4)

	w.section("Verification Results")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, lineHeight, "Summary:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, lineHeight, w.tr(r.Message), "", "L", false)
	pdf.Ln(4)

	w.section("Database Search Results")
	w.tableHeader()
	for i, dr := range r.DatabaseResults {
		w.tableRow([]string{
			dr.DatabaseName,
			strings.ToUpper(string(dr.Status)),
			formatDate(dr.SearchDate),
			databaseDetails(dr),
		}, i%2 == 1)
	}
}

func (w *pdfWriter) section(title string) {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pageW, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.SetDrawColor(colorRule[0], colorRule[1], colorRule[2])
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.Ln(3)
}

func (w *pdfWriter) field(label, value string) {
	pdf := w.pdf
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 7, w.tr(value), "", "L", false)
}

func (w *pdfWriter) tableHeader() {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(colorHeader[0], colorHeader[1], colorHeader[2])
	pdf.SetTextColor(255, 255, 255)
	for _, col := range databaseColumns {
		pdf.CellFormat(col.width, 8, col.title, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// tableRow draws one row whose height fits the tallest wrapped cell,
// starting a new page (with a repeated header) when the row would not fit.
func (w *pdfWriter) tableRow(cells []string, striped bool) {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "", 9)

	lines := make([]int, len(cells))
	rows := 1
	for i, cell := range cells {
		lines[i] = len(pdf.SplitLines([]byte(w.tr(cell)), databaseColumns[i].width))
		rows = max(rows, lines[i])
	}
	height := float64(rows)*5 + 2

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+height > pageH-footerSpace {
		pdf.AddPage()
		w.tableHeader()
		pdf.SetFont("Helvetica", "", 9)
	}

	x, y := pageMargin, pdf.GetY()
	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(colorRule[0], colorRule[1], colorRule[2])
	pdf.SetFillColor(colorStripe[0], colorStripe[1], colorStripe[2])
	style := "D"
	if striped {
		style = "FD"
	}
	for i, cell := range cells {
		width := databaseColumns[i].width
		pdf.Rect(x, y, width, height, style)
		pdf.SetXY(x, y+1)
		pdf.MultiCell(width, 5, w.tr(cell), "", "L", false)
		x += width
	}
	pdf.SetXY(pageMargin, y+height)
}

func identification(r models.OverallResult) string {
	if r.DocumentType == "" {
		return r.IdentificationNumber
	}
	return strings.ToUpper(string(r.DocumentType)) + ": " + r.IdentificationNumber
}

func databaseDetails(dr models.DatabaseResult) string {
	parts := []string{dr.Details}
	if dr.SearchURL != "" {
		parts = append(parts, "Source: "+dr.SearchURL)
	}
	if dr.ReferenceID != "" {
		parts = append(parts, "Reference ID: "+dr.ReferenceID)
	}
	return strings.Join(parts, "\n")
}
