package core

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateSession   = errors.New("user already has an open session")
	ErrCategoryMissing    = errors.New("ticket category not found")
	ErrEligibilityDenied  = errors.New("not eligible to apply for any role")
	ErrInvalidInteraction = errors.New("invalid interaction data")
	ErrMemberNotFound     = errors.New("member not found")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrProvision          = errors.New("platform operation failed")
)

// ProvisionError is a failed platform call. It matches ErrProvision with
// errors.Is and unwraps to the platform error.
type ProvisionError struct {
	Op  string
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision: %s: %v", e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

func (e *ProvisionError) Is(target error) bool { return target == ErrProvision }

// Provision wraps a platform failure of op. A nil err stays nil.
func Provision(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return err
	}
	return &ProvisionError{Op: op, Err: err}
}

// UserMessage maps an error to the text shown to the user who triggered it
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateSession):
		return "You already have an open ticket."
	case errors.Is(err, ErrCategoryMissing):
		return "The Mod-mail category could not be found."
	case errors.Is(err, ErrEligibilityDenied):
		return "You are not eligible to apply for any role."
	case errors.Is(err, ErrInvalidInteraction):
		return "Invalid interaction data."
	case errors.Is(err, ErrMemberNotFound):
		return "Could not find the user in the server."
	default:
		return "Something went wrong. Please try again later."
	}
}
