package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
	"github.com/noah-isme/uni-adp-api/pkg/export"
)

type mockTranscriptReader struct {
	rows   []models.TranscriptRow
	roster []models.SectionRosterEntry
}

func (m *mockTranscriptReader) Transcript(_ context.Context, _ string) ([]models.TranscriptRow, error) {
	return m.rows, nil
}

func (m *mockTranscriptReader) SectionRoster(_ context.Context, _, _ string) ([]models.SectionRosterEntry, error) {
	return m.roster, nil
}

type mockStudentReader struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func newReportFixture() *ReportService {
	program := "BS Computer Science"
	grades := &mockTranscriptReader{
		rows: []models.TranscriptRow{
			{SubjectCode: "CS101", SubjectTitle: "Intro to Computing", Units: 3, Semester: "2025-1", Average: 91.5, NumericGrade: "1.5"},
		},
		roster: []models.SectionRosterEntry{
			{StudentID: "2025-0001", StudentName: "Cruz, Ana"},
		},
	}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"stu-1": {
			Student:     models.Student{ID: "stu-1", StudentNumber: "2025-0001", FullName: "Cruz, Ana"},
			ProgramName: &program,
		},
	}}
	sections := &mockSectionReader{instructorOf: map[string][]string{"fac-1": {"CS101"}}}
	svc := NewReportService(grades, students, sections, export.NewCSVExporter(), export.NewPDFExporter("Test University"), nil, nil)
	return svc
}

func TestReportTranscriptPDFByDefault(t *testing.T) {
	svc := newReportFixture()

	result, err := svc.Transcript(context.Background(), registrarActor(), "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, "transcript-2025-0001.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestReportTranscriptCSV(t *testing.T) {
	svc := newReportFixture()

	result, err := svc.Transcript(context.Background(), registrarActor(), "stu-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "transcript-2025-0001.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Data), "CS101")
	assert.Contains(t, string(result.Data), "1.5")
}

func TestReportTranscriptUnknownStudent(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.Transcript(context.Background(), registrarActor(), "missing", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportTranscriptAdminAllowed(t *testing.T) {
	svc := newReportFixture()

	result, err := svc.Transcript(context.Background(), adminActor(), "stu-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "transcript-2025-0001.csv", result.Filename)
	assert.Contains(t, string(result.Data), "CS101")
}

func TestReportTranscriptForbiddenRole(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.Transcript(context.Background(), facultyActor(), "stu-1", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportTranscriptBadFormat(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.Transcript(context.Background(), registrarActor(), "stu-1", ExportFormat("xlsx"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportGradeSheetCSV(t *testing.T) {
	svc := newReportFixture()

	result, err := svc.GradeSheet(context.Background(), facultyActor(), "CS101", "2025-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "grades-CS101-2025-1.csv", result.Filename)
	assert.Contains(t, string(result.Data), "Cruz, Ana")
}

func TestReportGradeSheetOwnershipRequired(t *testing.T) {
	svc := newReportFixture()

	_, err := svc.GradeSheet(context.Background(), facultyActor(), "MATH300", "2025-1", FormatCSV)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
