package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// TranscriptDocument carries everything the transcript PDF needs.
type TranscriptDocument struct {
	Institute     string
	StudentName   string
	StudentNumber string
	Program       string
	Rows          []TranscriptLine
	GeneratedOn   string
}

// TranscriptLine is one graded subject on the transcript.
type TranscriptLine struct {
	SubjectCode  string
	SubjectTitle string
	Units        string
	Semester     string
	NumericGrade string
}

// PDFExporter renders official documents as A4 PDFs.
type PDFExporter struct {
	institute string
}

// NewPDFExporter constructs a PDF exporter stamped with the institute name.
func NewPDFExporter(institute string) *PDFExporter {
	return &PDFExporter{institute: institute}
}

var transcriptColumns = []struct {
	header string
	width  float64
}{
	{"CODE", 25},
	{"SUBJECT", 85},
	{"UNITS", 20},
	{"SEMESTER", 35},
	{"GRADE", 25},
}

// RenderTranscript produces the official transcript of records.
func (e *PDFExporter) RenderTranscript(doc TranscriptDocument) ([]byte, error) {
	if doc.StudentName == "" {
		return nil, fmt.Errorf("transcript requires a student name")
	}
	institute := doc.Institute
	if institute == "" {
		institute = e.institute
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, strings.ToUpper(institute), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "OFFICIAL TRANSCRIPT OF RECORDS", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Name: %s", doc.StudentName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Student No: %s", doc.StudentNumber), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Program: %s", doc.Program), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for _, col := range transcriptColumns {
		pdf.CellFormat(col.width, 8, col.header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range doc.Rows {
		values := []string{row.SubjectCode, row.SubjectTitle, row.Units, row.Semester, row.NumericGrade}
		for i, col := range transcriptColumns {
			align := ""
			if col.header == "UNITS" || col.header == "GRADE" {
				align = "C"
			}
			pdf.CellFormat(col.width, 7, values[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if doc.GeneratedOn != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Generated on %s. Not valid without the registrar's seal.", doc.GeneratedOn), "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render transcript pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable produces a plain tabular PDF, used for grade sheets.
func (e *PDFExporter) RenderTable(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
