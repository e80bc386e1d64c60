// Package herrors defines the holon engine's error taxonomy and its mapping
// onto dance response status codes. It builds on github.com/cockroachdb/errors
// rather than the stdlib errors package so that every engine error carries a
// wrapped cause chain, supports errors.Is/errors.As, and can still be given a
// human hint where useful.
package herrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// StatusCode mirrors HTTP semantics for DanceResponse.status_code, per
// spec.md §4.9 and §7.
type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusAccepted            StatusCode = 202
	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusNotFound            StatusCode = 404
	StatusConflict            StatusCode = 409
	StatusUnprocessableEntity StatusCode = 422
	StatusServerError         StatusCode = 500
	StatusNotImplemented      StatusCode = 501
	StatusServiceUnavailable  StatusCode = 503
)

// Kind identifies one of the taxonomy entries from spec.md §7. It is carried
// on every *EngineError so the dance dispatcher can map it to a StatusCode
// without type-switching on every concrete error struct.
type Kind int

const (
	KindNotAccessible Kind = iota
	KindHolonNotFound
	KindInvalidHolonReference
	KindReferenceResolutionFailed
	KindReferenceBindingFailed
	KindInvalidWireFormat
	KindCrossTransactionReference
	KindTransactionNotOpen
	KindTransactionAlreadyCommitted
	KindTransactionCommitInProgress
	KindInvalidTransactionTransition
	KindDuplicateError
	KindIndexOutOfRange
	KindEmptyField
	KindCommitFailure
	KindDeletionNotAllowed
	KindFailedToAcquireLock
	KindValidationError
	KindInvalidParameter
	KindInvalidType
	KindInvalidState
	KindInvalidUpdate
	KindNotImplemented
	KindServiceNotAvailable
	KindMisc
)

var statusByKind = map[Kind]StatusCode{
	KindNotAccessible:                StatusConflict,
	KindHolonNotFound:                StatusNotFound,
	KindInvalidHolonReference:        StatusBadRequest,
	KindReferenceResolutionFailed:    StatusBadRequest,
	KindReferenceBindingFailed:       StatusBadRequest,
	KindInvalidWireFormat:            StatusBadRequest,
	KindCrossTransactionReference:    StatusConflict,
	KindTransactionNotOpen:           StatusConflict,
	KindTransactionAlreadyCommitted:  StatusConflict,
	KindTransactionCommitInProgress:  StatusConflict,
	KindInvalidTransactionTransition: StatusConflict,
	KindDuplicateError:               StatusServerError, // see DESIGN.md Open Question 1
	KindIndexOutOfRange:              StatusBadRequest,
	KindEmptyField:                   StatusBadRequest,
	KindCommitFailure:                StatusServerError,
	KindDeletionNotAllowed:           StatusUnprocessableEntity,
	KindFailedToAcquireLock:          StatusServerError,
	KindValidationError:              StatusUnprocessableEntity,
	KindInvalidParameter:             StatusBadRequest,
	KindInvalidType:                  StatusBadRequest,
	KindInvalidState:                 StatusBadRequest,
	KindInvalidUpdate:                StatusBadRequest,
	KindNotImplemented:               StatusNotImplemented,
	KindServiceNotAvailable:          StatusServiceUnavailable,
	KindMisc:                         StatusServerError,
}

// EngineError is the concrete error type behind every taxonomy entry.
type EngineError struct {
	kind Kind
	msg  string
	err  error
}

func (e *EngineError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *EngineError) Unwrap() error { return e.err }

// Kind returns the taxonomy kind driving the dance status-code mapping.
func (e *EngineError) Kind() Kind { return e.kind }

// StatusCode returns the DanceResponse.status_code for this error per §7.
func (e *EngineError) StatusCode() StatusCode {
	if code, ok := statusByKind[e.kind]; ok {
		return code
	}
	return StatusServerError
}

func newErr(kind Kind, msg string) *EngineError {
	return &EngineError{kind: kind, msg: msg, err: errors.New(msg)}
}

func wrapErr(kind Kind, cause error, msg string) *EngineError {
	return &EngineError{kind: kind, msg: msg, err: errors.Wrap(cause, msg)}
}

// NotAccessible reports an access-control refusal: the access type attempted
// and the holon's current phase/sub-state description.
func NotAccessible(access, state string) *EngineError {
	return newErr(KindNotAccessible, fmt.Sprintf("not accessible: access=%s state=%s", access, state))
}

// HolonNotFound reports that no holon exists for the given id.
func HolonNotFound(id string) *EngineError {
	return newErr(KindHolonNotFound, fmt.Sprintf("holon not found: %s", id))
}

// InvalidHolonReference reports a reference that cannot be resolved, with a
// human-readable reason (e.g. a wire reference naming an unsupported variant).
func InvalidHolonReference(reason string) *EngineError {
	return newErr(KindInvalidHolonReference, fmt.Sprintf("invalid holon reference: %s", reason))
}

// ReferenceResolutionFailed reports a resolution failure against a known
// reference kind and id.
func ReferenceResolutionFailed(kind, id, reason string) *EngineError {
	return newErr(KindReferenceResolutionFailed,
		fmt.Sprintf("reference resolution failed: kind=%s id=%s reason=%s", kind, id, reason))
}

// ReferenceBindingFailed reports a wire reference failing to bind against a
// transaction context.
func ReferenceBindingFailed(reason string) *EngineError {
	return newErr(KindReferenceBindingFailed, fmt.Sprintf("reference binding failed: %s", reason))
}

// InvalidWireFormat reports a malformed wire payload.
func InvalidWireFormat(wireType, reason string) *EngineError {
	return newErr(KindInvalidWireFormat, fmt.Sprintf("invalid wire format: type=%s reason=%s", wireType, reason))
}

// CrossTransactionReference reports a reference dereferenced under a
// transaction other than the one it was bound to.
func CrossTransactionReference(referenceTx, contextTx uint64) *EngineError {
	return newErr(KindCrossTransactionReference,
		fmt.Sprintf("cross transaction reference: reference_tx=%d context_tx=%d", referenceTx, contextTx))
}

func TransactionNotOpen() *EngineError {
	return newErr(KindTransactionNotOpen, "transaction not open")
}

func TransactionAlreadyCommitted() *EngineError {
	return newErr(KindTransactionAlreadyCommitted, "transaction already committed")
}

func TransactionCommitInProgress() *EngineError {
	return newErr(KindTransactionCommitInProgress, "transaction commit in progress")
}

func InvalidTransactionTransition(from, to string) *EngineError {
	return newErr(KindInvalidTransactionTransition, fmt.Sprintf("invalid transaction transition: %s -> %s", from, to))
}

// DuplicateError reports more than one match where exactly one was expected,
// e.g. more than one staged holon sharing a base key.
func DuplicateError(kind, key string) *EngineError {
	return newErr(KindDuplicateError, fmt.Sprintf("duplicate %s for key %q", kind, key))
}

func IndexOutOfRange(index, count int) *EngineError {
	return newErr(KindIndexOutOfRange, fmt.Sprintf("index %d out of range (count=%d)", index, count))
}

func EmptyField(field string) *EngineError {
	return newErr(KindEmptyField, fmt.Sprintf("empty field: %s", field))
}

// CommitFailure wraps a persistence failure encountered while committing a
// staged holon or link.
func CommitFailure(cause error, reason string) *EngineError {
	return wrapErr(KindCommitFailure, cause, fmt.Sprintf("commit failure: %s", reason))
}

func DeletionNotAllowed(relationship string) *EngineError {
	return newErr(KindDeletionNotAllowed,
		fmt.Sprintf("deletion not allowed: relationship %q has non-empty targets", relationship))
}

func FailedToAcquireLock(detail string) *EngineError {
	return newErr(KindFailedToAcquireLock, fmt.Sprintf("failed to acquire lock: %s", detail))
}

func ValidationError(details string) *EngineError {
	return newErr(KindValidationError, fmt.Sprintf("validation error: %s", details))
}

func InvalidParameter(name string) *EngineError {
	return newErr(KindInvalidParameter, fmt.Sprintf("invalid parameter: %s", name))
}

func InvalidType(details string) *EngineError {
	return newErr(KindInvalidType, fmt.Sprintf("invalid type: %s", details))
}

func InvalidState(details string) *EngineError {
	return newErr(KindInvalidState, fmt.Sprintf("invalid state: %s", details))
}

func InvalidUpdate(details string) *EngineError {
	return newErr(KindInvalidUpdate, fmt.Sprintf("invalid update: %s", details))
}

func NotImplemented(feature string) *EngineError {
	return newErr(KindNotImplemented, fmt.Sprintf("not implemented: %s", feature))
}

func ServiceNotAvailable(service string) *EngineError {
	return newErr(KindServiceNotAvailable, fmt.Sprintf("service not available: %s", service))
}

func Misc(msg string) *EngineError {
	return newErr(KindMisc, msg)
}

// StatusCodeOf maps any error to a StatusCode: *EngineError values map per
// their Kind, everything else maps to StatusServerError so callers never
// have to special-case unrecognized error types at the dispatch boundary.
func StatusCodeOf(err error) StatusCode {
	if err == nil {
		return StatusOK
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.StatusCode()
	}
	return StatusServerError
}
