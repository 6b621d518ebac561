package services

import (
	"context"
	"strings"

	"github.com/inkwell-social/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, user types.User) (types.User, error)
	SetConfirmed(ctx context.Context, id int, confirmed bool) error
	SetPasswordHash(ctx context.Context, id int, hash string) error
	SetEmail(ctx context.Context, id int, email string) error
	SetRole(ctx context.Context, id, roleID int) error
	TouchLastSeen(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	UsernameExists(ctx context.Context, username string, excludeID int) (bool, error)
}

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	GetByID(ctx context.Context, id int) (types.Role, error)
	GetByName(ctx context.Context, name string) (types.Role, error)
	GetDefault(ctx context.Context) (types.Role, error)
	List(ctx context.Context) ([]types.Role, error)
	Seed(ctx context.Context, specs []types.RoleSpec) error
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo       UserRepository
	roles      RoleRepository
	adminEmail string
}

func NewUserService(repo UserRepository, roles RoleRepository, adminEmail string) *UserService {
	return &UserService{repo: repo, roles: roles, adminEmail: adminEmail}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Register creates an unconfirmed account with the default role and its
// mandatory self-follow edge. An account registered with the configured
// administrator address gets the Administrator role instead.
func (s *UserService) Register(ctx context.Context, email, username, password string) (types.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	role, err := s.registrationRole(ctx, email)
	if err != nil {
		return types.User{}, err
	}

	user := types.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	created.Role = role
	return created, nil
}

// Authenticate looks up the account by email and verifies the password
// attempt against the stored hash. The bool result is false for unknown
// accounts and bad passwords alike.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, false, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return types.User{}, false, nil
	}
	return user, true, nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *UserService) ChangePassword(ctx context.Context, user types.User, oldPassword, newPassword string) (bool, error) {
	if !VerifyPassword(user.PasswordHash, oldPassword) {
		return false, nil
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.UpdateProfile(ctx, user)
}

// TouchLastSeen refreshes the last-active timestamp of an account.
func (s *UserService) TouchLastSeen(ctx context.Context, id int) error {
	return s.repo.TouchLastSeen(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// SeedRoles upserts the canonical role table.
func (s *UserService) SeedRoles(ctx context.Context) error {
	return s.roles.Seed(ctx, types.CanonicalRoles)
}

// Roles lists the role table.
func (s *UserService) Roles(ctx context.Context) ([]types.Role, error) {
	return s.roles.List(ctx)
}

// AssignRole moves an account onto a different role. The role must
// exist; a lookup failure for an unknown role ID propagates unchanged.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID int) (types.User, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return types.User{}, err
	}
	if err := s.repo.SetRole(ctx, userID, role.ID); err != nil {
		return types.User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *UserService) registrationRole(ctx context.Context, email string) (types.Role, error) {
	if s.adminEmail != "" && strings.EqualFold(email, s.adminEmail) {
		return s.roles.GetByName(ctx, "Administrator")
	}
	return s.roles.GetDefault(ctx)
}
