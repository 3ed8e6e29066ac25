package types

type ID string

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleDriver Role = "LIVREUR"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   ID
	Role Role
}

func (a Actor) Is(role Role) bool {
	return a.ID != "" && a.Role == role
}
