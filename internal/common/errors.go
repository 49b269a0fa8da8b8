// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Precondition errors.
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNilRules          = errors.New("rule list cannot be nil")
	ErrInvalidGroupToken = errors.New("invalid group token")

	// Rule configuration errors.
	ErrInvalidRegex = errors.New("invalid regular expression")

	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RegexError reports a pattern that failed to compile.
type RegexError struct {
	Err     error
	Pattern string
}

func (e *RegexError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrInvalidRegex, e.Pattern, e.Err)
}

// Is makes errors.Is(err, ErrInvalidRegex) hold for every RegexError.
func (e *RegexError) Is(target error) bool {
	return target == ErrInvalidRegex
}

func (e *RegexError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
