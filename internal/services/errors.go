// Package services defines the business logic for conversations, turns,
// document ingestion, and the draft-approval learning loop. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes should be performed at the
// handler layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyPrompt is returned when a turn submission contains an empty
	// message.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a turn submission exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrTurnInProgress is returned when a conversation is already streaming
	// a response and a second concurrent turn is submitted.
	ErrTurnInProgress = errors.New("a turn is already in progress for this conversation")

	// ErrCaseNotFound indicates that the requested case does not exist or is
	// not accessible to the current user.
	ErrCaseNotFound = errors.New("case not found")

	// ErrDocumentNotFound indicates that the requested document does not
	// exist or is not accessible to the current user.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrMessageNotFound indicates that the requested message does not exist
	// or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrDraftNotFound indicates that the requested approved draft does not
	// exist or is not accessible to the current user.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrThesisNotFound indicates that the requested thesis does not exist or
	// is not accessible to the current user.
	ErrThesisNotFound = errors.New("thesis not found")

	// ErrAlreadyFinalized is returned when a draft decision is submitted for
	// a message that already has one.
	ErrAlreadyFinalized = errors.New("draft already finalized")

	// ErrNotPending is returned when a conflict resolution targets a thesis
	// that is not awaiting resolution.
	ErrNotPending = errors.New("thesis is not pending resolution")

	// ErrInvalidResolution is returned when a conflict resolution carries an
	// unknown action or is missing its target thesis.
	ErrInvalidResolution = errors.New("invalid conflict resolution")

	// ErrKnowledgeDocNotFound indicates that the requested knowledge document
	// does not exist or is not accessible to the current user.
	ErrKnowledgeDocNotFound = errors.New("knowledge document not found")
)
