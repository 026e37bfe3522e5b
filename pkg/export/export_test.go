package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"STUDENT NO", "NAME", "GRADE"},
		Rows: []map[string]string{
			{"STUDENT NO": "2023-0001", "NAME": "Ada Lim", "GRADE": "1.5"},
			{"STUDENT NO": "2023-0002", "NAME": "Rex Tan", "GRADE": "2.0"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "STUDENT NO,NAME,GRADE", lines[0])
	assert.Contains(t, lines[1], "2023-0001")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRenderTranscript(t *testing.T) {
	exporter := NewPDFExporter("Pacific State University")
	out, err := exporter.RenderTranscript(TranscriptDocument{
		StudentName:   "Ada Lim",
		StudentNumber: "2023-0001",
		Program:       "BS Computer Science",
		Rows: []TranscriptLine{
			{SubjectCode: "CS101", SubjectTitle: "Intro to Computing", Units: "3", Semester: "2025-1", NumericGrade: "1.5"},
		},
		GeneratedOn: "2025-12-20",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFExporterTranscriptRequiresStudent(t *testing.T) {
	exporter := NewPDFExporter("Pacific State University")
	_, err := exporter.RenderTranscript(TranscriptDocument{})
	assert.Error(t, err)
}

func TestPDFExporterRenderTable(t *testing.T) {
	exporter := NewPDFExporter("Pacific State University")
	out, err := exporter.RenderTable(Dataset{
		Headers: []string{"STUDENT NO", "GRADE"},
		Rows:    []map[string]string{{"STUDENT NO": "2023-0001", "GRADE": "1.5"}},
	}, "Grade Sheet CS101")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
