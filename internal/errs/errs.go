// Package errs defines the KeyForge error taxonomy (spec §7): a small
// closed set of kinds, each with a deterministic HTTP status and a
// Retryable flag, wrapped the way the teacher wraps errors with
// go-toolbox/pkg/errorx.
package errs

import (
	"fmt"
	"net/http"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// Kind is one of the taxonomy buckets from spec §7.
type Kind string

const (
	Validation     Kind = "validation"
	Integrity      Kind = "integrity"
	Data           Kind = "data"
	Transport      Kind = "transport"
	StoreTransient Kind = "store_transient"
	Fatal          Kind = "fatal"
)

// Error is the KeyForge error envelope: {kind, message, retryable}.
type Error struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryableByDefault(kind)}
}

// Wrap attaches kind/message context to an underlying error using the same
// wrap-with-context idiom as errorx.WrapError elsewhere in this repo.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{
		Kind:      kind,
		Message:   errorx.WrapError(message, cause).Error(),
		Retryable: retryableByDefault(kind),
		cause:     cause,
	}
}

func retryableByDefault(kind Kind) bool {
	switch kind {
	case Transport, StoreTransient:
		return true
	default:
		return false
	}
}

// Named validation/integrity/data error constructors, matching the
// concept-level names spec §7 uses as illustrative.

func SlotCountMismatch(got, want int) *Error {
	return New(Validation, fmt.Sprintf("slot count mismatch: got %d, want %d", got, want))
}

func PinnedCollision(char rune) *Error {
	return New(Validation, fmt.Sprintf("pinned character %q assigned to more than one slot", char))
}

func UnknownCharacter(char rune) *Error {
	return New(Validation, fmt.Sprintf("character %q is not in the scoring alphabet", char))
}

func NonFiniteNumber(field string) *Error {
	return New(Validation, fmt.Sprintf("field %q is not finite", field))
}

func JobIDMismatch(got, want string) *Error {
	return New(Integrity, fmt.Sprintf("job id mismatch: got %s, want %s", got, want))
}

func PathEscape(path string) *Error {
	return New(Integrity, fmt.Sprintf("path %q escapes the data jail", path))
}

func PayloadTooLarge(size, limit int64) *Error {
	return New(Integrity, fmt.Sprintf("payload %d bytes exceeds limit %d", size, limit))
}

func CorpusParseError(detail string) *Error {
	return New(Data, "corpus parse error: "+detail)
}

func CorpusSizeMismatch(got, want int) *Error {
	return New(Data, fmt.Sprintf("cost matrix dimension %d does not match slot count %d", got, want))
}

func AlphabetMismatch(detail string) *Error {
	return New(Data, "alphabet mismatch: "+detail)
}

func TransportTimeout(detail string) *Error {
	return New(Transport, "transport timeout: "+detail)
}

func Unreachable(detail string) *Error {
	return New(Transport, "unreachable: "+detail)
}

func AuthRequired() *Error {
	return New(Transport, "authentication required")
}

func StoreBusy() *Error {
	return New(StoreTransient, "store busy")
}

func StoreConflict() *Error {
	return New(StoreTransient, "store conflict")
}

func Unrecoverable(detail string) *Error {
	return New(Fatal, detail)
}

// HTTPStatus maps a Kind to the deterministic status code Hive responds
// with (spec §7).
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case Integrity:
		return http.StatusForbidden
	case Data:
		return http.StatusUnprocessableEntity
	case Transport:
		return http.StatusBadGateway
	case StoreTransient:
		return http.StatusServiceUnavailable
	case Fatal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts a *Error from an arbitrary error, returning ok=false if err
// is not (or does not wrap) one.
func As(err error) (*Error, bool) {
	var e *Error
	for err != nil {
		if ke, ok := err.(*Error); ok {
			e = ke
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e, e != nil
}
