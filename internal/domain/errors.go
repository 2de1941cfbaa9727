package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrFieldTooLong       = errors.New("field too long")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("weak password")
	ErrOrphanedIdentity   = errors.New("identity persisted without profile")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenBlacklisted   = errors.New("token is blacklisted")
	ErrNotFound           = errors.New("not found")
)

// DuplicateIdentityError names the unique column that collided.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s: %s already taken", ErrDuplicateIdentity, e.Field)
}

func (e *DuplicateIdentityError) Is(target error) bool { return target == ErrDuplicateIdentity }

type FieldTooLongError struct {
	Field string
	Max   int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("%s: %s exceeds %d characters", ErrFieldTooLong, e.Field, e.Max)
}

func (e *FieldTooLongError) Is(target error) bool { return target == ErrFieldTooLong }

// WeakPasswordError carries every message produced by the password policy.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrWeakPassword.Error()
	}
	return fmt.Sprintf("%s: %s", ErrWeakPassword, strings.Join(e.Reasons, "; "))
}

func (e *WeakPasswordError) Is(target error) bool { return target == ErrWeakPassword }

// ValidationError maps request fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

// IsValidation reports whether err should be surfaced to the caller as a
// client-side validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidEmailFormat) ||
		errors.Is(err, ErrDuplicateIdentity) ||
		errors.Is(err, ErrFieldTooLong) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrWeakPassword)
}
