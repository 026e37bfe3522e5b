package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-adp-api/internal/models"
	appErrors "github.com/noah-isme/uni-adp-api/pkg/errors"
)

type mockAccountStore struct {
	users   map[string]*models.User
	revoked map[string]bool
}

func newMockAccountStore(users ...*models.User) *mockAccountStore {
	store := &mockAccountStore{users: make(map[string]*models.User), revoked: make(map[string]bool)}
	for _, u := range users {
		dup := *u
		store.users[u.ID] = &dup
	}
	return store
}

func (m *mockAccountStore) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockAccountStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	dup := *u
	return &dup, nil
}

func (m *mockAccountStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			dup := *u
			return &dup, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountStore) Create(_ context.Context, user *models.User) error {
	dup := *user
	m.users[user.ID] = &dup
	return nil
}

func (m *mockAccountStore) UpdateActive(_ context.Context, id string, active bool, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = active
	u.UpdatedAt = updatedAt
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockAccountStore) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	m.revoked[userID] = true
	return nil
}

func existingAdmin() *models.User {
	return &models.User{
		ID: "adm-1", Email: "admin@uni.edu", FullName: "Dana Cruz",
		Role: models.RoleAdmin, Active: true,
	}
}

func TestAccountServiceCreate(t *testing.T) {
	store := newMockAccountStore(existingAdmin())
	audit := newMockAudit()
	svc := NewAccountService(store, audit, nil, nil)

	user, err := svc.Create(context.Background(), adminActor(), CreateAccountRequest{
		Email:    "Registrar@uni.edu",
		Password: "initial-pass",
		FullName: "Bea Santos",
		Role:     models.RoleRegistrar,
	})
	require.NoError(t, err)
	assert.Equal(t, "registrar@uni.edu", user.Email)
	assert.True(t, user.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("initial-pass")))

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAccountCreate, audit.entries[0].Action)
}

func TestAccountServiceCreateRejectsStudentRole(t *testing.T) {
	svc := NewAccountService(newMockAccountStore(), newMockAudit(), nil, nil)

	_, err := svc.Create(context.Background(), adminActor(), CreateAccountRequest{
		Email:    "kid@uni.edu",
		Password: "initial-pass",
		FullName: "Sam Uy",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAccountServiceCreateForbiddenForRegistrar(t *testing.T) {
	svc := NewAccountService(newMockAccountStore(), newMockAudit(), nil, nil)

	_, err := svc.Create(context.Background(), registrarActor(), CreateAccountRequest{
		Email:    "new@uni.edu",
		Password: "initial-pass",
		FullName: "New Person",
		Role:     models.RoleFaculty,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAccountServiceDeleteSelfRefused(t *testing.T) {
	store := newMockAccountStore(existingAdmin())
	svc := NewAccountService(store, newMockAudit(), nil, nil)

	err := svc.Delete(context.Background(), adminActor(), "adm-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	_, ok := store.users["adm-1"]
	assert.True(t, ok)
}

func TestAccountServiceDelete(t *testing.T) {
	other := &models.User{ID: "fac-9", Email: "old@uni.edu", Role: models.RoleFaculty, Active: true}
	store := newMockAccountStore(existingAdmin(), other)
	audit := newMockAudit()
	svc := NewAccountService(store, audit, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), adminActor(), "fac-9"))
	_, ok := store.users["fac-9"]
	assert.False(t, ok)
	assert.Equal(t, models.AuditActionAccountDelete, audit.entries[0].Action)

	err := svc.Delete(context.Background(), adminActor(), "fac-9")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAccountServiceDeactivateRevokesTokens(t *testing.T) {
	other := &models.User{ID: "reg-2", Email: "reg2@uni.edu", Role: models.RoleRegistrar, Active: true}
	store := newMockAccountStore(existingAdmin(), other)
	svc := NewAccountService(store, newMockAudit(), nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), adminActor(), "reg-2", false))
	assert.False(t, store.users["reg-2"].Active)
	assert.True(t, store.revoked["reg-2"])
}

func TestAccountServiceDeactivateSelfRefused(t *testing.T) {
	store := newMockAccountStore(existingAdmin())
	svc := NewAccountService(store, newMockAudit(), nil, nil)

	err := svc.SetActive(context.Background(), adminActor(), "adm-1", false)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.True(t, store.users["adm-1"].Active)
}

func TestAccountServiceListForbiddenForFaculty(t *testing.T) {
	svc := NewAccountService(newMockAccountStore(), newMockAudit(), nil, nil)
	faculty := models.Identity{ID: "fac-1", Role: models.RoleFaculty, Active: true}

	_, _, err := svc.List(context.Background(), faculty, models.UserFilter{})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
