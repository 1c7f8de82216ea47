package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"a11yhub/internal/auth"
	"a11yhub/internal/db"
	"a11yhub/internal/models"
	"a11yhub/internal/repository"
)

type testEnv struct {
	db         *gorm.DB
	auth       *auth.Service
	identity   *IdentityService
	roles      *RoleService
	integrated *IntegrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := db.OpenTestDB(t)

	issuer, err := auth.NewIssuer("test-access-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	authService := auth.NewService(issuer, auth.NewResolver(repository.New(conn), time.Second))

	identity := NewIdentityService(conn, authService)
	identity.SetPasswordCost(bcrypt.MinCost)

	return &testEnv{
		db:         conn,
		auth:       authService,
		identity:   identity,
		roles:      NewRoleService(conn),
		integrated: NewIntegrationService(conn),
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	user, _, err := e.identity.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return user
}

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return b, nil
}
