package domain

import "testing"

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name string
		role Role
		perm Permission
		want bool
	}{
		{name: "admin has everything via ALL", role: RoleAdmin, perm: PermUsersManage, want: true},
		{name: "admin has unlisted tokens too", role: RoleAdmin, perm: Permission("anything:at-all"), want: true},
		{name: "teacher can write violations", role: RoleTeacher, perm: PermViolationsWrite, want: true},
		{name: "teacher cannot manage users", role: RoleTeacher, perm: PermUsersManage, want: false},
		{name: "teacher cannot write students", role: RoleTeacher, perm: PermStudentsWrite, want: false},
		{name: "student reads violations", role: RoleStudent, perm: PermViolationsRead, want: true},
		{name: "student cannot write violations", role: RoleStudent, perm: PermViolationsWrite, want: false},
		{name: "parent views reports", role: RoleParent, perm: PermReportsView, want: true},
		{name: "parent cannot read teachers", role: RoleParent, perm: PermTeachersRead, want: false},
		{name: "unknown role has nothing", role: Role("JANITOR"), perm: PermDashboardView, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasPermission(tc.role, tc.perm); got != tc.want {
				t.Fatalf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent} {
		if !role.Valid() {
			t.Fatalf("%s should be valid", role)
		}
	}
	if Role("SUPERUSER").Valid() {
		t.Fatal("unknown role should be invalid")
	}
}
