package entity

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the canonical actor role. Every authorization decision works on
// these three values only.
type Role string

const (
	RoleWorker Role = "worker"
	RoleVenue  Role = "venue"
	RoleAdmin  Role = "admin"
)

// legacy token issuers still emit "horeca" for venue accounts
var roleAliases = map[string]Role{
	"worker": RoleWorker,
	"venue":  RoleVenue,
	"horeca": RoleVenue,
	"admin":  RoleAdmin,
}

// NormalizeRole maps a raw role claim to its canonical Role.
func NormalizeRole(raw string) (Role, bool) {
	role, ok := roleAliases[strings.ToLower(strings.TrimSpace(raw))]
	return role, ok
}

func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleVenue || r == RoleAdmin
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// ClientMeta is request metadata recorded on audit events.
type ClientMeta struct {
	IP        *string
	UserAgent *string
}
