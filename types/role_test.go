package types

import "testing"

func roleByName(t *testing.T, name string) Role {
	t.Helper()
	for i, spec := range CanonicalRoles {
		if spec.Name == name {
			return Role{ID: i + 1, Name: spec.Name, Permissions: spec.Permissions, Default: spec.Default}
		}
	}
	t.Fatalf("no canonical role %q", name)
	return Role{}
}

func TestCanonicalRoles(t *testing.T) {
	defaults := 0
	for _, spec := range CanonicalRoles {
		if spec.Default {
			defaults++
			if spec.Name != "User" {
				t.Errorf("default role = %q, want User", spec.Name)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("default roles = %d, want exactly 1", defaults)
	}
}

func TestRolePermissions(t *testing.T) {
	user := roleByName(t, "User")
	moderator := roleByName(t, "Moderator")
	admin := roleByName(t, "Administrator")

	for _, p := range []Permission{PermFollow, PermComment, PermWriteArticles} {
		if !user.Has(p) {
			t.Errorf("User lacks %#x", p)
		}
	}
	if user.Has(PermModerateComments) || user.Has(PermAdminister) {
		t.Error("User holds elevated bits")
	}

	if !moderator.Has(PermModerateComments) {
		t.Error("Moderator lacks moderation bit")
	}
	if moderator.Has(PermAdminister) {
		t.Error("Moderator holds administer bit")
	}

	for _, p := range []Permission{PermFollow, PermComment, PermWriteArticles, PermModerateComments, PermAdminister} {
		if !admin.Has(p) {
			t.Errorf("Administrator lacks %#x", p)
		}
	}
}

func TestUserCan(t *testing.T) {
	moderator := User{Role: roleByName(t, "Moderator")}
	if !moderator.Can(PermModerateComments) {
		t.Error("moderator cannot moderate")
	}
	if moderator.IsAdmin() {
		t.Error("moderator reports IsAdmin")
	}

	admin := User{Role: roleByName(t, "Administrator")}
	if !admin.IsAdmin() {
		t.Error("administrator fails IsAdmin")
	}
}

func TestAnonymousPrincipalDeniesEverything(t *testing.T) {
	anon := AnonymousPrincipal()
	for _, p := range []Permission{PermFollow, PermComment, PermWriteArticles, PermModerateComments, PermAdminister} {
		if anon.Can(p) {
			t.Errorf("anonymous principal granted %#x", p)
		}
	}
}
