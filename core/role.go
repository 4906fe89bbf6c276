package core

import (
	"fmt"
	"strings"
)

type Role string

const (
	Teacher Role = "teacher"
	Parent  Role = "parent"
	Admin   Role = "admin"
)

// ParseRole normalizes the input to lower case, like the original login did.
func ParseRole(s string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(s))); role {
	case Teacher, Parent, Admin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

func (r Role) Valid() bool {
	return r == Teacher || r == Parent || r == Admin
}

// Home is the dashboard path of a role. The original site redirected
// per role after login; this keeps that behavior in one place.
func (r Role) Home() string {
	switch r {
	case Teacher:
		return "/teachers"
	case Parent:
		return "/parents"
	case Admin:
		return "/admin"
	default:
		return "/"
	}
}

// Allowed reports whether the role passes a gate which allows the given roles.
// Admin passes every gate.
func (r Role) Allowed(allowed ...Role) bool {
	if r == Admin {
		return true
	}
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
