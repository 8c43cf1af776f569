package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdminVIP  UserRole = "ADMIN_VIP"
	RoleAdmin     UserRole = "ADMIN"
	RoleRegistrar UserRole = "REGISTRAR"
	RoleTeacher   UserRole = "TEACHER"
	RoleStudent   UserRole = "STUDENT"
)

// IsStaff reports whether the role sees the whole school (registry staff).
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleAdminVIP, RoleAdmin, RoleRegistrar:
		return true
	}
	return false
}

// User is a portal account stored in the users resource.
type User struct {
	ID       string   `json:"id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password,omitempty"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role" validate:"required,oneof=ADMIN_VIP ADMIN REGISTRAR TEACHER STUDENT"`
	Avatar   string   `json:"avatar,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
