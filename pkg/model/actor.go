package model

type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated principal on whose behalf an operation runs.
type Actor struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) CanBook() bool {
	return a.Role == RoleStudent || a.Role == RoleLecturer
}

func (a Actor) Owns(b *Booking) bool {
	return b != nil && a.ID != "" && b.UserID == a.ID
}

func (a Actor) OwnsOrAdmin(b *Booking) bool {
	return a.IsAdmin() || a.Owns(b)
}
