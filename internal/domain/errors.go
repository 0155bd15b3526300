package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("dependency unavailable")
)

// DenyReason distinguishes why the authorization gate refused a request.
type DenyReason string

const (
	DenyByRole            DenyReason = "forbidden_by_role"
	DenyByStatusWhitelist DenyReason = "forbidden_by_status_whitelist"
	DenyByExclusivity     DenyReason = "forbidden_by_exclusivity"
	DenyByOwnership       DenyReason = "forbidden_by_ownership"
)

type ForbiddenError struct {
	Reason  DenyReason
	Message string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden (%s): %s", e.Reason, e.Message)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// ConflictError carries the stored status and the status the caller asked for.
type ConflictError struct {
	Current   Status
	Requested Status
	Message   string
}

func (e *ConflictError) Error() string {
	if e.Current == "" && e.Requested == "" {
		return "conflict: " + e.Message
	}
	return fmt.Sprintf("conflict: %s (current=%s, requested=%s)", e.Message, e.Current, e.Requested)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
