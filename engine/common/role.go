package common

import "github.com/pkg/errors"

// Role is the role of a server process, decided once at startup
type Role string

const (
	// RoleArea hosts static areas
	RoleArea Role = "area"
	// RoleInstance hosts instances
	RoleInstance Role = "instance"
	// RoleConnector accepts client sessions
	RoleConnector Role = "connector"
	// RoleGate hands out connectors to clients
	RoleGate Role = "gate"
	// RoleAuth issues session tokens
	RoleAuth Role = "auth"
	// RoleChat delivers chats
	RoleChat Role = "chat"
	// RoleManager watches cluster membership
	RoleManager Role = "manager"
)

// Roles lists all roles
var Roles = []Role{RoleArea, RoleInstance, RoleConnector, RoleGate, RoleAuth, RoleChat, RoleManager}

// ParseRole parses role name
func ParseRole(s string) (Role, error) {
	for _, role := range Roles {
		if string(role) == s {
			return role, nil
		}
	}
	return "", errors.Errorf("unknown server role: %s", s)
}

// HostsAreas returns if the role owns static areas
func (r Role) HostsAreas() bool {
	return r == RoleArea
}

// HostsInstances returns if the role hosts instances
func (r Role) HostsInstances() bool {
	return r == RoleInstance
}

// HostsPlayers returns if players are admitted into the role, in areas or instances
func (r Role) HostsPlayers() bool {
	return r.HostsAreas() || r.HostsInstances()
}
