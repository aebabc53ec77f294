package exchange

import (
	"errors"
	"fmt"
)

// Code is a machine-readable failure kind.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeLedgerMissing     Code = "LEDGER_MISSING"
)

// Error is the failure half of every exchange operation. A returned *Error
// means nothing was mutated.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by code, so errors.Is(err, ErrNotFound) works for any
// not-found failure.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInsufficientFunds = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrLedgerMissing     = &Error{Code: CodeLedgerMissing, Message: "energy ledger missing"}
)

// CodeOf extracts the code from err, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// CommunityNotFound is the error for an id absent from the directory.
func CommunityNotFound(id string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("community %q not found", id),
		Metadata: map[string]string{"community_id": id},
	}
}

func ledgerMissing(id string) *Error {
	return &Error{
		Code:     CodeLedgerMissing,
		Message:  fmt.Sprintf("no energy ledger for community %q", id),
		Metadata: map[string]string{"community_id": id},
	}
}

func insufficientFunds(id string, available, wanted int64) *Error {
	return &Error{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("community %q has %d kWh available, %d requested", id, available, wanted),
		Metadata: map[string]string{
			"community_id": id,
			"available":    fmt.Sprint(available),
			"requested":    fmt.Sprint(wanted),
		},
	}
}

func validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}
