package relay

import (
	"strings"

	"gazflow/internal/types"
)

type Subject string

const (
	// AllOrders fires on any order change.
	AllOrders Subject = "orders"
	// Drivers fires on any driver profile change (presence, role).
	Drivers Subject = "profiles.drivers"
)

func ClientOrders(clientID types.ID) Subject {
	return Subject("orders.client." + string(clientID))
}

func DriverOrders(driverID types.ID) Subject {
	return Subject("orders.driver." + string(driverID))
}

func Profile(id types.ID) Subject {
	return Subject("profiles." + string(id))
}

// ParseSubject validates a subject coming from outside the process.
func ParseSubject(raw string) (Subject, bool) {
	s := Subject(raw)
	switch s {
	case AllOrders, Drivers:
		return s, true
	}
	for _, prefix := range []string{"orders.client.", "orders.driver.", "profiles."} {
		if rest, ok := strings.CutPrefix(raw, prefix); ok && rest != "" && !strings.ContainsAny(rest, ".* ") {
			return s, true
		}
	}
	return "", false
}

// Owner returns the id a per-actor subject is scoped to, or "" for shared subjects.
func (s Subject) Owner() types.ID {
	for _, prefix := range []string{"orders.client.", "orders.driver.", "profiles."} {
		if rest, ok := strings.CutPrefix(string(s), prefix); ok && s != Drivers {
			return types.ID(rest)
		}
	}
	return ""
}

// Allowed reports whether actor may subscribe to s.
func Allowed(actor types.Actor, s Subject) bool {
	if actor.Is(types.RoleAdmin) {
		return true
	}
	switch s {
	case AllOrders:
		// drivers watch the shared pending pool
		return actor.Is(types.RoleDriver)
	case Drivers:
		return false
	}
	owner := s.Owner()
	if owner == "" || owner != actor.ID {
		return false
	}
	switch {
	case strings.HasPrefix(string(s), "orders.client."):
		return actor.Role == types.RoleClient
	case strings.HasPrefix(string(s), "orders.driver."):
		return actor.Role == types.RoleDriver
	}
	return true
}
