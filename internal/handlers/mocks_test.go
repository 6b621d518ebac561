package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/internal/token"
	"github.com/inkwell-social/apiserver/types"
)

// memUserRepo is an in-memory services.UserRepository for handler tests.
type memUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (m *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

func (m *memUserRepo) UpdateProfile(_ context.Context, user types.User) (types.User, error) {
	stored, ok := m.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	stored.Name = user.Name
	stored.Location = user.Location
	stored.AboutMe = user.AboutMe
	stored.AvatarKey = user.AvatarKey
	m.users[user.ID] = stored
	return stored, nil
}

func (m *memUserRepo) SetConfirmed(_ context.Context, id int, confirmed bool) error {
	return m.mutate(id, func(u *types.User) { u.Confirmed = confirmed })
}

func (m *memUserRepo) SetPasswordHash(_ context.Context, id int, hash string) error {
	return m.mutate(id, func(u *types.User) { u.PasswordHash = hash })
}

func (m *memUserRepo) SetEmail(_ context.Context, id int, email string) error {
	return m.mutate(id, func(u *types.User) { u.Email = email })
}

func (m *memUserRepo) SetRole(_ context.Context, id, roleID int) error {
	return m.mutate(id, func(u *types.User) { u.RoleID = roleID })
}

func (m *memUserRepo) TouchLastSeen(_ context.Context, id int) error {
	return m.mutate(id, func(u *types.User) {})
}

func (m *memUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) EmailExists(_ context.Context, email string, excludeID int) (bool, error) {
	for _, user := range m.users {
		if user.ID != excludeID && strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UsernameExists(_ context.Context, username string, excludeID int) (bool, error) {
	for _, user := range m.users {
		if user.ID != excludeID && user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) mutate(id int, fn func(*types.User)) error {
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	m.users[id] = user
	return nil
}

// memRoleRepo serves the canonical roles.
type memRoleRepo struct{}

func (memRoleRepo) lookup(match func(types.RoleSpec) bool) (types.Role, error) {
	for i, spec := range types.CanonicalRoles {
		if match(spec) {
			return types.Role{ID: i + 1, Name: spec.Name, Permissions: spec.Permissions, Default: spec.Default}, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (m memRoleRepo) GetByID(_ context.Context, id int) (types.Role, error) {
	for i, spec := range types.CanonicalRoles {
		if i+1 == id {
			return types.Role{ID: id, Name: spec.Name, Permissions: spec.Permissions, Default: spec.Default}, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (m memRoleRepo) GetByName(_ context.Context, name string) (types.Role, error) {
	return m.lookup(func(s types.RoleSpec) bool { return s.Name == name })
}

func (m memRoleRepo) GetDefault(_ context.Context) (types.Role, error) {
	return m.lookup(func(s types.RoleSpec) bool { return s.Default })
}

func (m memRoleRepo) List(_ context.Context) ([]types.Role, error) {
	var roles []types.Role
	for i, spec := range types.CanonicalRoles {
		roles = append(roles, types.Role{ID: i + 1, Name: spec.Name, Permissions: spec.Permissions, Default: spec.Default})
	}
	return roles, nil
}

func (memRoleRepo) Seed(_ context.Context, _ []types.RoleSpec) error { return nil }

// memNotifier records tokens instead of queueing mail.
type memNotifier struct {
	confirmations []string
	resets        []string
	emailChanges  []string
}

func (n *memNotifier) SendConfirmation(_ context.Context, _ types.User, tok string) error {
	n.confirmations = append(n.confirmations, tok)
	return nil
}

func (n *memNotifier) SendPasswordReset(_ context.Context, _ types.User, tok string) error {
	n.resets = append(n.resets, tok)
	return nil
}

func (n *memNotifier) SendEmailChange(_ context.Context, _ types.User, _, tok string) error {
	n.emailChanges = append(n.emailChanges, tok)
	return nil
}

// testEnv bundles the service graph handler tests run against.
type testEnv struct {
	repo     *memUserRepo
	users    *services.UserService
	accounts *services.AccountService
	notifier *memNotifier
	auth     *Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemUserRepo()
	users := services.NewUserService(repo, memRoleRepo{}, "")
	notifier := &memNotifier{}
	accounts := services.NewAccountService(repo, token.NewIssuer("test-secret"), notifier)
	return &testEnv{
		repo:     repo,
		users:    users,
		accounts: accounts,
		notifier: notifier,
		auth:     NewAuthenticator(users, accounts),
	}
}

func (e *testEnv) register(t *testing.T, email, username, password string) types.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), email, username, password)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}
