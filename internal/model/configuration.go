package model

// PatternConfiguration is the unit exchanged between the engine and its callers:
// the synthesized patterns together with the inputs they were derived from.
type PatternConfiguration struct {
	GroupToken        *Token               `json:"group_token,omitempty" yaml:"group_token,omitempty"`
	RolePatterns      map[ImageRole]string `json:"role_patterns" yaml:"role_patterns"`
	GroupPattern      string               `json:"group_pattern" yaml:"group_pattern"`
	Rules             []RoleRule           `json:"rules" yaml:"rules"`
	Tokens            []Token              `json:"tokens" yaml:"tokens"`
	FlexibleExtension bool                 `json:"flexible_extension" yaml:"flexible_extension"`
}

// NewPatternConfiguration returns an empty configuration.
func NewPatternConfiguration() *PatternConfiguration {
	return &PatternConfiguration{
		RolePatterns: make(map[ImageRole]string),
	}
}

// RolePattern returns the pattern of a role, or "" when none is set.
func (c *PatternConfiguration) RolePattern(role ImageRole) string {
	if c.RolePatterns == nil {
		return ""
	}
	return c.RolePatterns[role]
}

// RulesForRole returns the rules targeting a role, in stored order.
func (c *PatternConfiguration) RulesForRole(role ImageRole) []RoleRule {
	var out []RoleRule
	for _, r := range c.Rules {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

// HasRolePattern reports whether at least one role pattern is non-empty.
func (c *PatternConfiguration) HasRolePattern() bool {
	for _, role := range Roles() {
		if c.RolePattern(role) != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the configuration.
func (c *PatternConfiguration) Clone() *PatternConfiguration {
	out := &PatternConfiguration{
		GroupPattern:      c.GroupPattern,
		FlexibleExtension: c.FlexibleExtension,
		RolePatterns:      make(map[ImageRole]string, len(c.RolePatterns)),
		Rules:             append([]RoleRule(nil), c.Rules...),
		Tokens:            append([]Token(nil), c.Tokens...),
	}
	for k, v := range c.RolePatterns {
		out.RolePatterns[k] = v
	}
	if c.GroupToken != nil {
		tok := *c.GroupToken
		out.GroupToken = &tok
	}
	return out
}
