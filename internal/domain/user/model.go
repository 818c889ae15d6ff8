package user

type Role string

const (
	RolePlayer    Role = "player"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Principal is the authenticated caller as established by token
// introspection. It travels on the request context.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// CanOperate reports whether the principal may drive session and match
// state: start sessions, control the clock, record goals, rotate the
// queue.
func (p Principal) CanOperate() bool {
	return p.Role == RoleOrganizer || p.Role == RoleAdmin
}
