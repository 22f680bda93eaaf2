package entity

import "errors"

// Error kinds surfaced by the core. Storage and service layers wrap these
// with context; handlers match with errors.Is to pick a status code.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("record not found")
	ErrDuplicatePhone        = errors.New("phone number already registered")
	ErrDuplicateMembershipID = errors.New("membership id already taken")
	ErrAllocationExhausted   = errors.New("membership id allocation attempts exhausted")
	ErrConstraint            = errors.New("uniqueness constraint violated")
	ErrTerminalStatus        = errors.New("membership status is terminal")
	ErrNotApproved           = errors.New("membership not approved")
)
