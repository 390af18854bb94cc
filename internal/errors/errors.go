package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeTimeout    = "TIMEOUT"
)

// AppError is returned by the local HTTP API.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewConflictError is used when a batch is already running.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  409,
	}
}

// RemoteStoreError describes a failed AnkiConnect call. Response holds the
// raw body when one was received.
type RemoteStoreError struct {
	Action   string
	Message  string
	Response string
	Err      error
}

func (e *RemoteStoreError) Error() string {
	msg := fmt.Sprintf("ankiconnect %s: %s", e.Action, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

// Messages used for the fixed failure classes of the remote store.
const (
	MsgUnreachable      = "unreachable"
	MsgInvalidResponse  = "invalid response"
	MsgUnexpectedStatus = "unexpected status"
	MsgNoNoteID         = "no note id returned"
)

// NewRemoteStoreError wraps err with the action that was attempted.
func NewRemoteStoreError(action, message, response string, err error) *RemoteStoreError {
	return &RemoteStoreError{Action: action, Message: message, Response: response, Err: err}
}

// GenerationError is returned when the language model call fails or its
// output does not match the flashcard schema. It is never retried.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Err)
	}
	return "generation failed: " + e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a GenerationError.
func NewGenerationError(message string, err error) *GenerationError {
	return &GenerationError{Message: message, Err: err}
}

// MediaSynthesisError is returned by the text-to-speech collaborator.
type MediaSynthesisError struct {
	Text string
	Err  error
}

func (e *MediaSynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed for %q: %v", e.Text, e.Err)
}

func (e *MediaSynthesisError) Unwrap() error {
	return e.Err
}

// NewMediaSynthesisError creates a MediaSynthesisError.
func NewMediaSynthesisError(text string, err error) *MediaSynthesisError {
	return &MediaSynthesisError{Text: text, Err: err}
}

// IsRemoteStore reports whether err wraps a RemoteStoreError.
func IsRemoteStore(err error) bool {
	var target *RemoteStoreError
	return stderrors.As(err, &target)
}

// IsGeneration reports whether err wraps a GenerationError.
func IsGeneration(err error) bool {
	var target *GenerationError
	return stderrors.As(err, &target)
}

// IsMediaSynthesis reports whether err wraps a MediaSynthesisError.
func IsMediaSynthesis(err error) bool {
	var target *MediaSynthesisError
	return stderrors.As(err, &target)
}
