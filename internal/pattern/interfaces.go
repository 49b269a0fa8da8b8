// Package pattern evaluates role rules against filenames and synthesizes role patterns.
package pattern

import (
	"github.com/Veraticus/shot-grouper/internal/model"
)

// Classifier assigns a role to a filename from role rules.
type Classifier interface {
	// Classify returns the role of the first matching rule in role precedence order.
	Classify(filename string, rules []Rule) (model.ImageRole, bool, error)
	// ClassifyFilenames buckets filenames per role, skipping unclassified ones.
	ClassifyFilenames(filenames []string, rules []Rule) (map[model.ImageRole][]string, error)
}

// Rule is an alias to the model.RoleRule type for convenience.
type Rule = model.RoleRule
