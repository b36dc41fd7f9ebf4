package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates no speech engine could be started.
	ErrUnavailable = errors.New("speech engine unavailable")

	// ErrEmptyText is returned when an utterance has nothing to say.
	ErrEmptyText = errors.New("utterance text is empty")
)

// ErrorCode identifies the stage an engine failure happened in.
type ErrorCode string

const (
	CodeUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	CodeVoices      ErrorCode = "VOICES_FAILED"
	CodeSynthesis   ErrorCode = "SYNTHESIS_FAILED"
	CodeTimeout     ErrorCode = "SYNTHESIS_TIMEOUT"
	CodeAudioFormat ErrorCode = "AUDIO_FORMAT"
	CodePlayback    ErrorCode = "PLAYBACK_FAILED"
)

// Error is a speech engine failure.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewError creates an Error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports unavailability errors as ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable && e.Code == CodeUnavailable
}

// IsFatal reports whether the engine cannot be used any further.
func (e *Error) IsFatal() bool {
	return e.Code == CodeUnavailable
}
