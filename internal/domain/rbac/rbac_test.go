package rbac

import (
	"testing"
)

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "пустой набор", roles: nil, want: ""},
		{name: "один maker", roles: []string{RoleMaker}, want: RoleMaker},
		{name: "maker + checker", roles: []string{RoleMaker, RoleChecker}, want: RoleChecker},
		{name: "checker + admin", roles: []string{RoleChecker, RoleAdmin}, want: RoleAdmin},
		{name: "admin + maker", roles: []string{RoleAdmin, RoleMaker}, want: RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HighestRole(tt.roles)
			if got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	m := GroupMapping{
		AdminGroups:   []string{"mc-admins"},
		CheckerGroups: []string{"mc-checkers", "branch-managers"},
		MakerGroups:   []string{"mc-makers"},
	}

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{name: "нет групп", groups: nil, want: ""},
		{name: "чужие группы", groups: []string{"finance"}, want: ""},
		{name: "maker", groups: []string{"mc-makers"}, want: RoleMaker},
		{name: "checker по второй группе", groups: []string{"branch-managers"}, want: RoleChecker},
		{name: "maker и checker", groups: []string{"mc-makers", "mc-checkers"}, want: RoleChecker},
		{name: "все группы", groups: []string{"mc-makers", "mc-admins", "mc-checkers"}, want: RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGroupsToRole(tt.groups, m)
			if got != tt.want {
				t.Errorf("MapGroupsToRole(%v) = %q, хотели %q", tt.groups, got, tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		role, required string
		want           bool
	}{
		{RoleAdmin, RoleChecker, true},
		{RoleChecker, RoleChecker, true},
		{RoleMaker, RoleChecker, false},
		{RoleChecker, RoleAdmin, false},
		{"", RoleMaker, false},
		{"superuser", RoleMaker, false},
	}
	for _, tt := range tests {
		if got := AtLeast(tt.role, tt.required); got != tt.want {
			t.Errorf("AtLeast(%q, %q) = %v, хотели %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []string{RoleMaker, RoleChecker, RoleAdmin} {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	if IsValidRole("readonly") {
		t.Error("IsValidRole(\"readonly\") = true")
	}
}
