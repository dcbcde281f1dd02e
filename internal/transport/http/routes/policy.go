package routes

import (
	"net/http"

	"github.com/cybertank378/student-point-app-sub000/internal/core/domain"
	"github.com/cybertank378/student-point-app-sub000/internal/transport/http/middleware"
)

// DefaultGatePolicy is the static routing policy of the application: which
// paths bypass the gate, which answer JSON on failure, and which permission
// each area requires. Consulted read-only.
func DefaultGatePolicy() middleware.GatePolicy {
	return middleware.GatePolicy{
		PublicPaths: []string{
			"/",
			"/login",
			"/403",
			"/healthz",
			"/readyz",
			"/metrics",
		},
		PublicPrefixes: []string{
			"/api/auth/login",
			"/api/auth/refresh",
			"/api/auth/logout",
			"/api/auth/request-reset",
			"/api/auth/reset-password",
			"/static/",
			"/assets/",
			"/favicon",
		},
		APIPrefixes: []string{
			"/api/",
		},
		Permissions:   append(apiPermissions(), uiPermissions()...),
		LoginPath:     "/login",
		ForbiddenPath: "/403",
	}
}

// apiPermissions maps API path+method to required permission. Method-scoped
// rules precede catch-alls; first match wins.
func apiPermissions() []middleware.RoutePermission {
	return []middleware.RoutePermission{
		{Method: http.MethodGet, Prefix: "/api/students", Permission: domain.PermStudentsRead},
		{Prefix: "/api/students", Permission: domain.PermStudentsWrite},
		{Method: http.MethodGet, Prefix: "/api/teachers", Permission: domain.PermTeachersRead},
		{Prefix: "/api/teachers", Permission: domain.PermTeachersWrite},
		{Method: http.MethodGet, Prefix: "/api/rombel", Permission: domain.PermRombelRead},
		{Prefix: "/api/rombel", Permission: domain.PermRombelWrite},
		{Method: http.MethodGet, Prefix: "/api/violations", Permission: domain.PermViolationsRead},
		{Prefix: "/api/violations", Permission: domain.PermViolationsWrite},
		{Method: http.MethodGet, Prefix: "/api/achievements", Permission: domain.PermAchievementsRead},
		{Prefix: "/api/achievements", Permission: domain.PermAchievementsWrite},
		{Prefix: "/api/reports", Permission: domain.PermReportsView},
		{Prefix: "/api/users", Permission: domain.PermUsersManage},
	}
}

// uiPermissions maps UI route prefixes to required permission.
func uiPermissions() []middleware.RoutePermission {
	return []middleware.RoutePermission{
		{Prefix: "/dashboard", Permission: domain.PermDashboardView},
		{Prefix: "/students", Permission: domain.PermStudentsRead},
		{Prefix: "/teachers", Permission: domain.PermTeachersRead},
		{Prefix: "/rombel", Permission: domain.PermRombelRead},
		{Prefix: "/violations", Permission: domain.PermViolationsRead},
		{Prefix: "/achievements", Permission: domain.PermAchievementsRead},
		{Prefix: "/reports", Permission: domain.PermReportsView},
		{Prefix: "/users", Permission: domain.PermUsersManage},
	}
}
