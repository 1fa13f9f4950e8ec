package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelConfig matches every *ConfigError via errors.Is.
var ErrModelConfig = errors.New("model configuration error")

// Kind classifies a configuration error.
type Kind string

const (
	KindInvalid   Kind = "invalid"
	KindDuplicate Kind = "duplicate"
	KindNotFound  Kind = "not_found"
)

// ConfigError is a user-facing model configuration error.
type ConfigError struct {
	Kind     Kind
	Key      string
	Message  string
	Problems []string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrModelConfig) match any configuration error.
func (e *ConfigError) Is(target error) bool {
	return target == ErrModelConfig
}

// Invalid aggregates validation problems into one error.
func Invalid(problems []string) *ConfigError {
	return &ConfigError{
		Kind:     KindInvalid,
		Message:  "Invalid TextModelConfig: " + strings.Join(problems, ", "),
		Problems: append([]string(nil), problems...),
	}
}

// Duplicate reports an add for a key that already exists.
func Duplicate(key string) *ConfigError {
	return &ConfigError{
		Kind:    KindDuplicate,
		Key:     key,
		Message: fmt.Sprintf("Model %s already exists", key),
	}
}

// NotFound reports an update or delete of a key that does not exist.
func NotFound(key string) *ConfigError {
	return &ConfigError{
		Kind:    KindNotFound,
		Key:     key,
		Message: fmt.Sprintf("Model %s does not exist", key),
	}
}

// Unknown reports an enable or disable of a key that is neither stored nor built in.
func Unknown(key string) *ConfigError {
	return &ConfigError{
		Kind:    KindNotFound,
		Key:     key,
		Message: fmt.Sprintf("Unknown model: %s", key),
	}
}

// KindOf returns the kind of a wrapped *ConfigError, or "" when err is not one.
func KindOf(err error) Kind {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Kind
	}
	return ""
}

// ImportExportError wraps a failure while exporting or importing a data set.
type ImportExportError struct {
	Message  string
	DataType string
	Cause    error
}

// Error implements the error interface
func (e *ImportExportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.DataType, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.DataType, e.Message)
}

// Unwrap returns the underlying cause
func (e *ImportExportError) Unwrap() error {
	return e.Cause
}

// WrapImportExport wraps err for dataType, returning nil for a nil err.
func WrapImportExport(err error, dataType, message string) error {
	if err == nil {
		return nil
	}
	return &ImportExportError{
		Message:  message,
		DataType: dataType,
		Cause:    err,
	}
}
