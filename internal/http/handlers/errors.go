// Package handlers implements the public HTTP API.
//
// Symbolic error codes returned in the error envelope. Codes are lowercase
// snake_case; generic ones mirror HTTP status semantics, domain ones cover
// outcomes a status alone cannot convey (e.g. a turn already streaming on the
// conversation). Clients branch on these codes, never on message text.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeTurnInProgress   = "turn_in_progress"
	ErrCodeStreamFailed     = "stream_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeIndexFailed      = "index_failed"
	ErrCodeResolveFailed    = "resolve_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
