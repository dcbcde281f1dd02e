package domain

import "time"

// Role enumerates the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// TeacherRole enumerates the optional sub-roles a TEACHER account may carry.
type TeacherRole string

const (
	TeacherRoleHomeroom   TeacherRole = "HOMEROOM"
	TeacherRoleCounselor  TeacherRole = "COUNSELOR"
	TeacherRoleCurriculum TeacherRole = "CURRICULUM"
	TeacherRoleSubject    TeacherRole = "SUBJECT"
)

// Valid reports whether the sub-role belongs to the closed set.
func (r TeacherRole) Valid() bool {
	switch r {
	case TeacherRoleHomeroom, TeacherRoleCounselor, TeacherRoleCurriculum, TeacherRoleSubject:
		return true
	}
	return false
}

// User mirrors the persisted representation in the users table, restricted to
// the fields the identity subsystem owns. The username may be a numeric
// student or teacher id string.
type User struct {
	ID                 string
	Username           string
	PasswordHash       string
	Role               Role
	TeacherRole        *TeacherRole
	FailedAttempts     int
	LockUntil          *time.Time
	MustChangePassword bool
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LoginAudit is an append-only record of an authentication attempt.
// UserID is nil when the identifier did not resolve to an account.
type LoginAudit struct {
	ID         string
	UserID     *string
	Identifier string
	Success    bool
	IP         *string
	UserAgent  *string
	CreatedAt  time.Time
}

// AuthPayload is the only data carried inside signed tokens. It must never
// include the password hash or a session id.
type AuthPayload struct {
	Sub         string
	Username    string
	Role        Role
	TeacherRole *TeacherRole
}

// Validate rejects decoded payloads that do not conform to the closed
// role and sub-role enumerations.
func (p AuthPayload) Validate() error {
	if p.Sub == "" {
		return ErrInvalidPayload
	}
	if !p.Role.Valid() {
		return ErrInvalidPayload
	}
	if p.TeacherRole != nil && !p.TeacherRole.Valid() {
		return ErrInvalidPayload
	}
	return nil
}
