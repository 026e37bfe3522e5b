package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type mockPaymentStore struct {
	payments []models.Payment
}

func (m *mockPaymentStore) Record(_ context.Context, payment *models.Payment) error {
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockPaymentStore) ListByStudent(_ context.Context, studentID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPaymentStore) Stats(_ context.Context, studentID string) (*models.PaymentStats, error) {
	stats := &models.PaymentStats{}
	for _, p := range m.payments {
		if p.StudentID == studentID && p.Status == models.PaymentStatusCompleted {
			stats.Total += p.Amount
			stats.Count++
		}
	}
	return stats, nil
}

func newPaymentFixture(audit *mockAudit) (*PaymentService, *mockPaymentStore) {
	store := &mockPaymentStore{}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", StudentNumber: "2025-0001", FullName: "Cruz, Ana"}},
	}}
	return NewPaymentService(store, students, audit, nil, nil), store
}

func TestPaymentRecord(t *testing.T) {
	audit := newMockAudit()
	svc, store := newPaymentFixture(audit)

	payment, err := svc.Record(context.Background(), registrarActor(), RecordPaymentRequest{
		StudentID:       "stu-1",
		Amount:          1500.50,
		Method:          "cash",
		ReferenceNumber: "OR-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.ReferenceNumber)
	assert.Equal(t, "OR-1001", *payment.ReferenceNumber)
	assert.Nil(t, payment.Description)
	require.Len(t, store.payments, 1)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionPaymentRecord, audit.entries[0].Action)
	assert.Equal(t, "payment", audit.entries[0].EntityType)
}

func TestPaymentRecordUnknownStudent(t *testing.T) {
	svc, store := newPaymentFixture(newMockAudit())

	_, err := svc.Record(context.Background(), registrarActor(), RecordPaymentRequest{
		StudentID: "missing",
		Amount:    100,
		Method:    "cash",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, store.payments)
}

func TestPaymentRecordRejectsNonPositiveAmount(t *testing.T) {
	svc, store := newPaymentFixture(newMockAudit())

	_, err := svc.Record(context.Background(), registrarActor(), RecordPaymentRequest{
		StudentID: "stu-1",
		Amount:    0,
		Method:    "cash",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, store.payments)
}

func TestPaymentRecordCapabilityRequired(t *testing.T) {
	svc, store := newPaymentFixture(newMockAudit())

	for _, actor := range []models.Identity{adminActor(), facultyActor()} {
		_, err := svc.Record(context.Background(), actor, RecordPaymentRequest{
			StudentID: "stu-1",
			Amount:    100,
			Method:    "cash",
		})
		assert.Truef(t, appErrors.Is(err, appErrors.ErrForbidden), "role %s", actor.Role)
	}
	assert.Empty(t, store.payments)
}

func TestPaymentStatsCountCompletedOnly(t *testing.T) {
	svc, store := newPaymentFixture(newMockAudit())
	store.payments = []models.Payment{
		{StudentID: "stu-1", Amount: 1000, Status: models.PaymentStatusCompleted},
		{StudentID: "stu-1", Amount: 250.25, Status: models.PaymentStatusCompleted},
		{StudentID: "stu-1", Amount: 999, Status: "REFUNDED"},
		{StudentID: "stu-2", Amount: 400, Status: models.PaymentStatusCompleted},
	}

	stats, err := svc.Stats(context.Background(), registrarActor(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1250.25, stats.Total)
	assert.Equal(t, 2, stats.Count)
}

func TestPaymentListForbiddenForFaculty(t *testing.T) {
	svc, _ := newPaymentFixture(newMockAudit())

	_, err := svc.List(context.Background(), facultyActor(), "stu-1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
