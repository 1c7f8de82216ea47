package auth

import (
	"context"
	"sync"

	"a11yhub/internal/models"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	roles map[string][]models.Role
	perms map[string][]models.Permission
	err   error
	block bool
	calls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[string]*models.User{},
		roles: map[string][]models.Role{},
		perms: map[string][]models.Permission{},
	}
}

func (f *fakeRepo) addUser(id, email string, version int, roles ...models.Role) {
	f.users[id] = &models.User{Base: models.Base{ID: id}, Email: email, TokenVersion: version}
	f.roles[id] = roles
}

func (f *fakeRepo) grant(roleID string, names ...models.PermissionName) {
	for _, n := range names {
		f.perms[roleID] = append(f.perms[roleID], models.Permission{Base: models.Base{ID: string(n)}, Name: string(n)})
	}
}

func (f *fakeRepo) setRoles(userID string, roles ...models.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[userID] = roles
}

func (f *fakeRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	f.calls++
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return f.users[id], nil
}

func (f *fakeRepo) FindRolesByUserID(_ context.Context, userID string) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[userID], nil
}

func (f *fakeRepo) FindPermissionsByRoleIDs(_ context.Context, roleIDs []string) ([]models.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Permission
	for _, id := range roleIDs {
		out = append(out, f.perms[id]...)
	}
	return out, nil
}

func (f *fakeRepo) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func role(id string, name models.RoleName) models.Role {
	return models.Role{Base: models.Base{ID: id}, Name: string(name)}
}
