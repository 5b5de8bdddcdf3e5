// Package fault defines the error taxonomy shared by the chat, analyzer and
// knowledge-base components.
package fault

import (
	"errors"
	"fmt"
)

// TransportError reports a failure reaching or streaming from a remote model.
// Partial holds the text that was already delivered before the failure; it is
// never rolled back.
type TransportError struct {
	Op      string
	Partial string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: transport failure", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport wraps err as a TransportError for op. A nil err yields nil.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// ValidationError is a caller-side guard failure. It is raised before any
// remote call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is matches any other *ValidationError with the same field and reason, so the
// sentinels below work with errors.Is even after wrapping.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Field == e.Field && t.Reason == e.Reason
}

// ConfigurationError reports invalid static configuration: an unknown icon key
// in the knowledge base, a malformed environment value and so on.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Sentinel validation failures.
var (
	ErrEmptyMessage  = &ValidationError{Field: "text", Reason: "message is empty"}
	ErrBusy          = &ValidationError{Field: "state", Reason: "a response is already in progress"}
	ErrImageTooLarge = &ValidationError{Field: "image", Reason: "image exceeds the upload limit"}
	ErrEmptyImage    = &ValidationError{Field: "image", Reason: "image is empty"}
	ErrNotAnImage    = &ValidationError{Field: "image", Reason: "payload is not an image"}
	ErrBadEncoding   = &ValidationError{Field: "image", Reason: "payload is not valid base64"}
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
