package model

import (
	"fmt"
	"strings"
)

// ImageRole is the capture viewpoint of an image.
type ImageRole string

// Image roles in precedence order.
const (
	RoleOverview ImageRole = "overview"
	RoleFront    ImageRole = "front"
	RoleRear     ImageRole = "rear"
)

// Roles returns all roles in evaluation precedence order.
func Roles() []ImageRole {
	return []ImageRole{RoleOverview, RoleFront, RoleRear}
}

// Precedence returns the evaluation rank of the role; lower is evaluated first.
func (r ImageRole) Precedence() int {
	switch r {
	case RoleOverview:
		return 1
	case RoleFront:
		return 2
	case RoleRear:
		return 3
	}
	return 0
}

// IsValid reports whether r is a known role.
func (r ImageRole) IsValid() bool {
	return r.Precedence() > 0
}

// DisplayName returns the capitalized role name.
func (r ImageRole) DisplayName() string {
	switch r {
	case RoleOverview:
		return "Overview"
	case RoleFront:
		return "Front"
	case RoleRear:
		return "Rear"
	}
	return string(r)
}

// ParseImageRole parses a role name case-insensitively.
func ParseImageRole(s string) (ImageRole, error) {
	role := ImageRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown image role %q (valid: overview, front, rear)", s)
	}
	return role, nil
}
