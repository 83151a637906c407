package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a TabsidianError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *TabsidianError {
	if err == nil {
		return nil
	}

	// Keep the location of an existing TabsidianError so the outer error still points at the source
	var te *TabsidianError
	if errors.As(err, &te) {
		return &TabsidianError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       te,
			Context:     te.Context,
			FilePath:    te.FilePath,
			Line:        te.Line,
			Column:      te.Column,
			Recoverable: te.Recoverable,
		}
	}

	return &TabsidianError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeTemplate || errType == ErrorTypeDelivery,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *TabsidianError {
	wrapped := Wrap(err, ErrorTypeIO, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *TabsidianError {
	wrapped := Wrap(err, ErrorTypeConfig, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WrapDelivery wraps an error as a delivery error
func WrapDelivery(err error, code, message string) *TabsidianError {
	return Wrap(err, ErrorTypeDelivery, code, message)
}

// GetCode returns the code of the outermost TabsidianError in the chain, or
// the empty string.
func GetCode(err error) string {
	var te *TabsidianError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// GetLocation returns the line and column recorded on err, if any.
func GetLocation(err error) (line, column int, ok bool) {
	var te *TabsidianError
	if errors.As(err, &te) && te.Line > 0 {
		return te.Line, te.Column, true
	}
	return 0, 0, false
}
