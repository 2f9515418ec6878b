package valueobject

type Role string

const (
	RoleClient    Role = "client"
	RoleProvider  Role = "provider"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// IsStaff сообщает, относится ли роль к персоналу площадки.
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin
}

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusBanned    AccountStatus = "banned"
)
