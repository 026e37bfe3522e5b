package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/authz"
	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/export"
)

type transcriptReader interface {
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
	SectionRoster(ctx context.Context, subjectCode, semester string) ([]models.SectionRosterEntry, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// ExportFormat selects the rendering for a grade sheet download.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered document ready for download. DownloadToken,
// when set, allows re-fetching the archived copy without re-rendering.
type ExportResult struct {
	Filename      string
	ContentType   string
	Data          []byte
	DownloadToken string
}

// ReportService renders transcripts and grade sheets. Transcripts include
// only subjects with an assigned grade.
type ReportService struct {
	grades   transcriptReader
	students studentReader
	sections sectionReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	exports  *ExportService
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the service. exports may be nil, in which
// case rendered documents are not archived.
func NewReportService(grades transcriptReader, students studentReader, sections sectionReader, csvExporter *export.CSVExporter, pdfExporter *export.PDFExporter, exports *ExportService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		grades:   grades,
		students: students,
		sections: sections,
		csv:      csvExporter,
		pdf:      pdfExporter,
		exports:  exports,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Download re-fetches an archived export via its signed token. The token
// itself carries the authorization; any authenticated caller may present one.
func (s *ReportService) Download(token string) (*ExportResult, error) {
	return s.exports.Download(token)
}

func (s *ReportService) archiveResult(result *ExportResult) {
	if s.exports == nil {
		return
	}
	s.exports.Archive(result.Filename, result.Data)
	token, err := s.exports.SignDownload(result.Filename)
	if err != nil {
		s.logger.Warn("failed to sign export download", zap.String("filename", result.Filename), zap.Error(err))
		return
	}
	result.DownloadToken = token
}

// Transcript renders the official transcript for a student, as a PDF by
// default or a CSV when requested.
func (s *ReportService) Transcript(ctx context.Context, actor models.Identity, studentID string, format ExportFormat) (*ExportResult, error) {
	if !authz.CanPerform(actor.Role, authz.ActionExportTranscript) {
		return nil, appErrors.ErrForbidden
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	rows, err := s.grades.Transcript(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript rows")
	}

	base := fmt.Sprintf("transcript-%s", student.StudentNumber)
	switch format {
	case FormatCSV:
		data := export.Dataset{
			Headers: []string{"SUBJECT CODE", "SUBJECT TITLE", "UNITS", "SEMESTER", "GRADE"},
		}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"SUBJECT CODE":  row.SubjectCode,
				"SUBJECT TITLE": row.SubjectTitle,
				"UNITS":         strconv.Itoa(row.Units),
				"SEMESTER":      row.Semester,
				"GRADE":         row.NumericGrade,
			})
		}
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		result := &ExportResult{Filename: base + ".csv", ContentType: "text/csv", Data: out}
		s.archiveResult(result)
		return result, nil
	case FormatPDF, "":
		doc := export.TranscriptDocument{
			StudentName:   student.FullName,
			StudentNumber: student.StudentNumber,
			GeneratedOn:   s.now().Format("2006-01-02"),
		}
		if student.ProgramName != nil {
			doc.Program = *student.ProgramName
		}
		for _, row := range rows {
			doc.Rows = append(doc.Rows, export.TranscriptLine{
				SubjectCode:  row.SubjectCode,
				SubjectTitle: row.SubjectTitle,
				Units:        strconv.Itoa(row.Units),
				Semester:     row.Semester,
				NumericGrade: row.NumericGrade,
			})
		}
		data, err := s.pdf.RenderTranscript(doc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		result := &ExportResult{Filename: base + ".pdf", ContentType: "application/pdf", Data: data}
		s.archiveResult(result)
		return result, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// GradeSheet renders the section's marks for download by the instructor of
// record.
func (s *ReportService) GradeSheet(ctx context.Context, actor models.Identity, subjectCode, semester string, format ExportFormat) (*ExportResult, error) {
	if !authz.CanAccess(actor.Role, authz.PageGradeInput) {
		return nil, appErrors.ErrForbidden
	}
	owns, err := s.sections.IsInstructor(ctx, actor.ID, subjectCode, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section ownership")
	}
	if !owns {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the instructor of record for this section")
	}

	roster, err := s.grades.SectionRoster(ctx, subjectCode, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}

	data := export.Dataset{
		Headers: []string{"STUDENT NO", "NAME", "MIDTERM", "FINALS", "AVERAGE", "GRADE"},
	}
	for _, entry := range roster {
		row := map[string]string{
			"STUDENT NO": entry.StudentID,
			"NAME":       entry.StudentName,
			"MIDTERM":    formatMark(entry.Midterm),
			"FINALS":     formatMark(entry.Finals),
		}
		if entry.Average != nil {
			row["AVERAGE"] = strconv.FormatFloat(*entry.Average, 'f', 1, 64)
		}
		if entry.NumericGrade != nil {
			row["GRADE"] = *entry.NumericGrade
		}
		data.Rows = append(data.Rows, row)
	}

	base := fmt.Sprintf("grades-%s-%s", subjectCode, semester)
	switch format {
	case FormatPDF:
		out, err := s.pdf.RenderTable(data, fmt.Sprintf("Grade Sheet %s %s", subjectCode, semester))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grade sheet")
		}
		result := &ExportResult{Filename: base + ".pdf", ContentType: "application/pdf", Data: out}
		s.archiveResult(result)
		return result, nil
	case FormatCSV, "":
		out, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render grade sheet")
		}
		result := &ExportResult{Filename: base + ".csv", ContentType: "text/csv", Data: out}
		s.archiveResult(result)
		return result, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func formatMark(mark *int) string {
	if mark == nil {
		return ""
	}
	return strconv.Itoa(*mark)
}
