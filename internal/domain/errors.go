package domain

import (
	"errors"
	"fmt"

	"github.com/totegamma/tubesage"
)

// NotFoundError represents a missing resource. Inside the content and chat
// flows it only signals "needs generation" or "needs creation".
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ErrAlreadyExists is returned by stores when a unique key was already taken
// by a concurrent writer.
var ErrAlreadyExists = errors.New("already exists")

// ErrorCode is the machine readable code returned to API callers.
type ErrorCode string

const (
	CodeInvalidParams        ErrorCode = "InvalidParams"
	CodeInvalidPlatform      ErrorCode = "InvalidPlatform"
	CodeInvalidVideoID       ErrorCode = "InvalidVideoId"
	CodeInvalidPlatformVideo ErrorCode = "InvalidPlatformVideo"
	CodeUnsupportedURL       ErrorCode = "UnsupportedUrl"
	CodeInvalidBody          ErrorCode = "InvalidBody"
	CodeNoSession            ErrorCode = "NoSession"
	CodeForbidden            ErrorCode = "Forbidden"
	CodeUnauthorized         ErrorCode = "Unauthorized"
	CodeProbeFailed          ErrorCode = "ValidationUnavailable"
	CodeStorage              ErrorCode = "StorageFailure"
	CodeGeneration           ErrorCode = "GenerationFailure"
	CodeInternal             ErrorCode = "InternalError"
)

var messages = map[ErrorCode]string{
	CodeInvalidParams:        "Please provide either a URL or a combination of platform and video ID, but not both.",
	CodeInvalidPlatform:      "Invalid or unsupported platform.",
	CodeInvalidVideoID:       "Invalid video ID format.",
	CodeInvalidPlatformVideo: "The provided platform and ID do not correspond to a valid video.",
	CodeUnsupportedURL:       "Invalid or unsupported video URL",
}

// Message returns the default human readable text for a code.
func (c ErrorCode) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return string(c)
}

// InputError is a malformed or contradictory client request.
type InputError struct {
	Code    ErrorCode
	Message string
}

func (e *InputError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func NewInputError(code ErrorCode, msg string) *InputError {
	return &InputError{Code: code, Message: msg}
}

// ResolutionError means the input was well formed but does not identify a
// supported, existing video.
type ResolutionError struct {
	Code ErrorCode
}

func (e *ResolutionError) Error() string {
	return e.Code.Message()
}

func NewResolutionError(code ErrorCode) *ResolutionError {
	return &ResolutionError{Code: code}
}

// ProbeError is a failed or timed out existence check. It says nothing about
// whether the video exists.
type ProbeError struct {
	Platform string
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("existence check for %s failed: %v", e.Platform, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// StorageError is a store failure other than not-found.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GenerationError is a failed or timed out call to the generation service.
type GenerationError struct {
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func NewGenerationError(kind tubesage.ContentKind, err error) *GenerationError {
	return &GenerationError{Kind: string(kind), Err: err}
}
