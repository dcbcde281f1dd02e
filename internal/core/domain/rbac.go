package domain

// Permission is an opaque string capability token.
type Permission string

// PermissionAll grants the full permission set to a role mapped to it.
const PermissionAll Permission = "ALL"

// Permission tokens consumed by the request gate. Naming is owned by the
// broader application; the evaluation rule below is not.
const (
	PermDashboardView     Permission = "dashboard:view"
	PermStudentsRead      Permission = "students:read"
	PermStudentsWrite     Permission = "students:write"
	PermTeachersRead      Permission = "teachers:read"
	PermTeachersWrite     Permission = "teachers:write"
	PermRombelRead        Permission = "rombel:read"
	PermRombelWrite       Permission = "rombel:write"
	PermViolationsRead    Permission = "violations:read"
	PermViolationsWrite   Permission = "violations:write"
	PermAchievementsRead  Permission = "achievements:read"
	PermAchievementsWrite Permission = "achievements:write"
	PermReportsView       Permission = "reports:view"
	PermUsersManage       Permission = "users:manage"
)

// RolePermissions maps each role to either the literal ALL set or an explicit
// permission list. Consulted read-only by the request gate.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {PermissionAll},
	RoleTeacher: {
		PermDashboardView,
		PermStudentsRead,
		PermRombelRead,
		PermViolationsRead,
		PermViolationsWrite,
		PermAchievementsRead,
		PermAchievementsWrite,
		PermReportsView,
	},
	RoleStudent: {
		PermDashboardView,
		PermViolationsRead,
		PermAchievementsRead,
	},
	RoleParent: {
		PermDashboardView,
		PermViolationsRead,
		PermAchievementsRead,
		PermReportsView,
	},
}

// HasPermission is the sole authorization decision rule: a role has a
// permission iff it maps to ALL or the token is a member of its explicit
// list. No hierarchy, no inheritance, no wildcards beyond ALL.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == PermissionAll || p == perm {
			return true
		}
	}
	return false
}
