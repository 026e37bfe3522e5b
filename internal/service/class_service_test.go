package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type mockRosterStore struct {
	instructorOf map[string][]string
	registered   map[string]bool
}

func newMockRosterStore() *mockRosterStore {
	return &mockRosterStore{
		instructorOf: map[string][]string{"fac-1": {"CS101"}},
		registered:   make(map[string]bool),
	}
}

func rosterKey(studentID, subjectCode, semester string) string {
	return studentID + "/" + subjectCode + "/" + semester
}

func (m *mockRosterStore) IsInstructor(_ context.Context, facultyID, subjectCode, _ string) (bool, error) {
	for _, code := range m.instructorOf[facultyID] {
		if code == subjectCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRosterStore) AddToRoster(_ context.Context, registration *models.SubjectRegistration) error {
	m.registered[rosterKey(registration.StudentID, registration.SubjectCode, registration.Semester)] = true
	return nil
}

func (m *mockRosterStore) RemoveFromRoster(_ context.Context, studentID, subjectCode, semester string) error {
	key := rosterKey(studentID, subjectCode, semester)
	if !m.registered[key] {
		return sql.ErrNoRows
	}
	delete(m.registered, key)
	return nil
}

func newClassFixture() (*ClassService, *mockRosterStore, *mockAudit) {
	store := newMockRosterStore()
	audit := newMockAudit()
	return NewClassService(store, audit, nil, nil), store, audit
}

func TestClassAddStudent(t *testing.T) {
	svc, store, audit := newClassFixture()

	err := svc.AddStudent(context.Background(), facultyActor(), RosterChangeRequest{
		StudentID:   "stu-1",
		SubjectCode: "CS101",
		Semester:    "2026-1",
	})
	require.NoError(t, err)
	assert.True(t, store.registered[rosterKey("stu-1", "CS101", "2026-1")])

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionRosterAdd, audit.entries[0].Action)
	assert.Equal(t, "roster", audit.entries[0].EntityType)
}

func TestClassRemoveStudent(t *testing.T) {
	svc, store, audit := newClassFixture()
	store.registered[rosterKey("stu-1", "CS101", "2026-1")] = true

	err := svc.RemoveStudent(context.Background(), facultyActor(), RosterChangeRequest{
		StudentID:   "stu-1",
		SubjectCode: "CS101",
		Semester:    "2026-1",
	})
	require.NoError(t, err)
	assert.False(t, store.registered[rosterKey("stu-1", "CS101", "2026-1")])
	assert.Equal(t, models.AuditActionRosterRemove, audit.entries[len(audit.entries)-1].Action)
}

func TestClassRemoveUnregisteredStudent(t *testing.T) {
	svc, _, _ := newClassFixture()

	err := svc.RemoveStudent(context.Background(), facultyActor(), RosterChangeRequest{
		StudentID:   "stu-9",
		SubjectCode: "CS101",
		Semester:    "2026-1",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClassRosterOwnershipRequired(t *testing.T) {
	svc, store, _ := newClassFixture()

	err := svc.AddStudent(context.Background(), facultyActor(), RosterChangeRequest{
		StudentID:   "stu-1",
		SubjectCode: "MATH300",
		Semester:    "2026-1",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, store.registered)
}

func TestClassRosterCapabilityRequired(t *testing.T) {
	svc, store, _ := newClassFixture()

	err := svc.AddStudent(context.Background(), registrarActor(), RosterChangeRequest{
		StudentID:   "stu-1",
		SubjectCode: "CS101",
		Semester:    "2026-1",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Empty(t, store.registered)
}
