package domain

import (
	"encoding/json"
	"fmt"
)

// Role is the closed set of authorization roles. Unknown values are rejected
// at construction, never compared as free strings.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role is part of the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UnmarshalJSON enforces the closed set on decode, so a stale or tampered
// snapshot cannot smuggle an unknown role into an authorization check.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
