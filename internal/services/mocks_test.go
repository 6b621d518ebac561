package services

import (
	"context"
	"strings"
	"sync"

	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/inkwell-social/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]types.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	stored.Name = user.Name
	stored.Location = user.Location
	stored.AboutMe = user.AboutMe
	stored.AvatarKey = user.AvatarKey
	f.users[user.ID] = stored
	return stored, nil
}

func (f *fakeUserRepo) SetConfirmed(_ context.Context, id int, confirmed bool) error {
	return f.mutate(id, func(u *types.User) { u.Confirmed = confirmed })
}

func (f *fakeUserRepo) SetPasswordHash(_ context.Context, id int, hash string) error {
	return f.mutate(id, func(u *types.User) { u.PasswordHash = hash })
}

func (f *fakeUserRepo) SetEmail(_ context.Context, id int, email string) error {
	return f.mutate(id, func(u *types.User) { u.Email = email })
}

func (f *fakeUserRepo) SetRole(_ context.Context, id, roleID int) error {
	return f.mutate(id, func(u *types.User) { u.RoleID = roleID })
}

func (f *fakeUserRepo) TouchLastSeen(_ context.Context, id int) error {
	return f.mutate(id, func(u *types.User) {})
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string, excludeID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID != excludeID && strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UsernameExists(_ context.Context, username string, excludeID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID != excludeID && user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) mutate(id int, fn func(*types.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	f.users[id] = user
	return nil
}

// fakeRoleRepo serves the canonical roles from memory.
type fakeRoleRepo struct {
	roles []types.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	repo := &fakeRoleRepo{}
	for i, spec := range types.CanonicalRoles {
		repo.roles = append(repo.roles, types.Role{
			ID:          i + 1,
			Name:        spec.Name,
			Permissions: spec.Permissions,
			Default:     spec.Default,
		})
	}
	return repo
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id int) (types.Role, error) {
	for _, role := range f.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (f *fakeRoleRepo) GetByName(_ context.Context, name string) (types.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (f *fakeRoleRepo) GetDefault(_ context.Context) (types.Role, error) {
	for _, role := range f.roles {
		if role.Default {
			return role, nil
		}
	}
	return types.Role{}, store.ErrNotFound
}

func (f *fakeRoleRepo) List(_ context.Context) ([]types.Role, error) {
	return f.roles, nil
}

func (f *fakeRoleRepo) Seed(_ context.Context, _ []types.RoleSpec) error {
	return nil
}

// fakeNotifier records mail instead of queueing it.
type fakeNotifier struct {
	confirmations []string
	resets        []string
	emailChanges  []string
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, _ types.User, tok string) error {
	f.confirmations = append(f.confirmations, tok)
	return nil
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, _ types.User, tok string) error {
	f.resets = append(f.resets, tok)
	return nil
}

func (f *fakeNotifier) SendEmailChange(_ context.Context, _ types.User, _ string, tok string) error {
	f.emailChanges = append(f.emailChanges, tok)
	return nil
}

// fakeFollowRepo is an in-memory edge set.
type fakeFollowRepo struct {
	edges map[[2]int]bool
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: map[[2]int]bool{}}
}

func (f *fakeFollowRepo) Follow(_ context.Context, followerID, followedID int) error {
	f.edges[[2]int{followerID, followedID}] = true
	return nil
}

func (f *fakeFollowRepo) Unfollow(_ context.Context, followerID, followedID int) error {
	delete(f.edges, [2]int{followerID, followedID})
	return nil
}

func (f *fakeFollowRepo) IsFollowing(_ context.Context, followerID, followedID int) (bool, error) {
	return f.edges[[2]int{followerID, followedID}], nil
}

func (f *fakeFollowRepo) CountFollowing(_ context.Context, userID int) (int, error) {
	count := 0
	for edge := range f.edges {
		if edge[0] == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFollowRepo) CountFollowers(_ context.Context, userID int) (int, error) {
	count := 0
	for edge := range f.edges {
		if edge[1] == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeFollowRepo) ListFollowers(_ context.Context, userID, _, _ int) ([]types.Follow, error) {
	var follows []types.Follow
	for edge := range f.edges {
		if edge[1] == userID {
			follows = append(follows, types.Follow{FollowerID: edge[0], FollowedID: edge[1]})
		}
	}
	return follows, nil
}

func (f *fakeFollowRepo) ListFollowing(_ context.Context, userID, _, _ int) ([]types.Follow, error) {
	var follows []types.Follow
	for edge := range f.edges {
		if edge[0] == userID {
			follows = append(follows, types.Follow{FollowerID: edge[0], FollowedID: edge[1]})
		}
	}
	return follows, nil
}

// removeUser drops every edge touching the user, mirroring the schema
// cascade.
func (f *fakeFollowRepo) removeUser(userID int) {
	for edge := range f.edges {
		if edge[0] == userID || edge[1] == userID {
			delete(f.edges, edge)
		}
	}
}
