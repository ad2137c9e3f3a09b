package domain

import "errors"

// Error kinds. Every domain error unwraps to exactly one of these so callers can
// map failures without knowing each concrete error.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// kindError is a concrete domain error belonging to one kind
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newNotFound(msg string) error { return &kindError{kind: ErrNotFound, msg: msg} }
func newConflict(msg string) error { return &kindError{kind: ErrConflict, msg: msg} }

// FieldError is a validation failure attached to a single input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }
func (e *FieldError) Unwrap() error { return ErrValidation }

// NewFieldError creates a validation error for a field
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

var (
	ErrMemberNotFound       = newNotFound("member not found")
	ErrContributionNotFound = newNotFound("contribution not found")
	ErrExpenditureNotFound  = newNotFound("expenditure not found")

	ErrAdminRequired  = &kindError{kind: ErrForbidden, msg: "administrator privileges required"}
	ErrMemberInactive = &kindError{kind: ErrForbidden, msg: "member account is inactive"}

	ErrDuplicateContribution   = newConflict("member already has a contribution for this due date")
	ErrContributionAlreadyPaid = newConflict("contribution is already paid")
	ErrMemberEmailTaken        = newConflict("email address is already registered to another member")
	ErrMemberSubjectTaken      = newConflict("identity is already linked to another member")
)

// Field validation errors
var (
	ErrInvalidAmount         = NewFieldError("amount", "must be a non-negative number up to 9999999999999.99 with at most 2 decimal places")
	ErrDueDateRequired       = NewFieldError("dueDate", "due date is required")
	ErrDueDateInPast         = NewFieldError("dueDate", "due date cannot be in the past")
	ErrInvalidContribStatus  = NewFieldError("status", "must be one of: pending, paid, overdue")
	ErrStatusDateMismatch    = NewFieldError("status", "status does not match the due and paid dates")
	ErrPaidDateInFuture      = NewFieldError("paidDate", "paid date cannot be in the future")
	ErrCannotUnpay           = NewFieldError("status", "a paid contribution cannot return to unpaid")
	ErrNotesTooLong          = NewFieldError("notes", "notes must be 1000 characters or less")
	ErrProofTooLong          = NewFieldError("proof", "proof reference must be 255 characters or less")
	ErrInvalidCategory       = NewFieldError("category", "must be one of: Operations, Maintenance, Events, Utilities, Supplies, Emergency, Other")
	ErrInvalidExpStatus      = NewFieldError("status", "must be one of: approved, pending, rejected")
	ErrDescriptionRequired   = NewFieldError("description", "description is required")
	ErrDescriptionTooLong    = NewFieldError("description", "description cannot exceed 1000 characters")
	ErrExpenditureDateNeeded = NewFieldError("expenditureDate", "expenditure date is required")
	ErrNameRequired          = NewFieldError("name", "member name is required")
	ErrNameTooLong           = NewFieldError("name", "member name cannot exceed 255 characters")
	ErrInvalidEmail          = NewFieldError("email", "please provide a valid email address")
	ErrPhoneTooLong          = NewFieldError("phone", "phone number cannot exceed 20 characters")
	ErrNegativeBalance       = NewFieldError("balance", "balance cannot be negative")
	ErrInvalidBalance        = NewFieldError("balance", "balance must be at most 9999999999999.99 with at most 2 decimal places")
	ErrInvalidMonth          = NewFieldError("month", "month must be between 1 and 12")
	ErrInvalidYear           = NewFieldError("year", "year must be between 2000 and 2100")
	ErrMemberRequired        = NewFieldError("memberId", "the selected member does not exist")
)

// Validation limits
const (
	MaxNotesLength       = 1000
	MaxDescriptionLength = 1000
	MaxProofLength       = 255
	MaxNameLength        = 255
	MaxPhoneLength       = 20
)
