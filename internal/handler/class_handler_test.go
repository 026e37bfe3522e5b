package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uni-adp-api/internal/models"
	"github.com/noah-isme/uni-adp-api/internal/service"
)

type fakeRosterStore struct {
	instructorOf map[string][]string
	registered   map[string]bool
}

func (f *fakeRosterStore) IsInstructor(_ context.Context, facultyID, subjectCode, _ string) (bool, error) {
	for _, code := range f.instructorOf[facultyID] {
		if code == subjectCode {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRosterStore) AddToRoster(_ context.Context, reg *models.SubjectRegistration) error {
	f.registered[reg.StudentID+"|"+reg.SubjectCode+"|"+reg.Semester] = true
	return nil
}

func (f *fakeRosterStore) RemoveFromRoster(_ context.Context, studentID, subjectCode, semester string) error {
	key := studentID + "|" + subjectCode + "|" + semester
	if !f.registered[key] {
		return sql.ErrNoRows
	}
	delete(f.registered, key)
	return nil
}

func newClassTestHandler(store *fakeRosterStore) *ClassHandler {
	return NewClassHandler(service.NewClassService(store, nil, nil, nil))
}

func TestClassHandlerAddStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeRosterStore{
		instructorOf: map[string][]string{"actor-1": {"CS101"}},
		registered:   map[string]bool{},
	}
	handler := newClassTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/sections/CS101/roster", strings.NewReader(`{"student_id":"stu-1","semester":"2026-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "code", Value: "CS101"}}
	asRole(c, models.RoleFaculty)

	handler.AddStudent(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, store.registered["stu-1|CS101|2026-1"])
}

func TestClassHandlerAddStudentNotOwnSection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeRosterStore{
		instructorOf: map[string][]string{"actor-1": {"CS101"}},
		registered:   map[string]bool{},
	}
	handler := newClassTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/sections/MATH300/roster", strings.NewReader(`{"student_id":"stu-1","semester":"2026-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "code", Value: "MATH300"}}
	asRole(c, models.RoleFaculty)

	handler.AddStudent(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.registered)
}

func TestClassHandlerAddStudentBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeRosterStore{
		instructorOf: map[string][]string{"actor-1": {"CS101"}},
		registered:   map[string]bool{},
	}
	handler := newClassTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/sections/CS101/roster", strings.NewReader(`{"student_id":"stu-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "code", Value: "CS101"}}
	asRole(c, models.RoleFaculty)

	handler.AddStudent(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassHandlerRemoveStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeRosterStore{
		instructorOf: map[string][]string{"actor-1": {"CS101"}},
		registered:   map[string]bool{"stu-1|CS101|2026-1": true},
	}
	handler := newClassTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/sections/CS101/roster/stu-1?semester=2026-1", nil)
	c.Params = gin.Params{{Key: "code", Value: "CS101"}, {Key: "student", Value: "stu-1"}}
	asRole(c, models.RoleFaculty)

	handler.RemoveStudent(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.registered)
}

func TestClassHandlerRemoveUnregisteredStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeRosterStore{
		instructorOf: map[string][]string{"actor-1": {"CS101"}},
		registered:   map[string]bool{},
	}
	handler := newClassTestHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/sections/CS101/roster/stu-9?semester=2026-1", nil)
	c.Params = gin.Params{{Key: "code", Value: "CS101"}, {Key: "student", Value: "stu-9"}}
	asRole(c, models.RoleFaculty)

	handler.RemoveStudent(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
