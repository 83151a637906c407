// Package errors provides the structured error type shared by tabsidian
// packages. Errors carry a category, a stable code, an optional source
// location and a recoverability hint so callers can decide between falling
// back (a broken user template) and aborting (an unreadable snapshot).
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeTemplate   ErrorType = "template"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeDelivery   ErrorType = "delivery"
	ErrorTypeInternal   ErrorType = "internal"
)

// TabsidianError is a structured error type with context.
type TabsidianError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *TabsidianError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" || e.Line > 0 {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, strings.TrimPrefix(location, ":"))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TabsidianError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *TabsidianError) Is(target error) bool {
	var t *TabsidianError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *TabsidianError) WithContext(key string, value interface{}) *TabsidianError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *TabsidianError) WithLocation(filePath string, line, column int) *TabsidianError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// Error creation functions

// NewTemplateError creates a template error. Template errors are always
// recoverable: the caller substitutes the default template.
func NewTemplateError(code, message string) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeTemplate,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewDeliveryError creates a delivery error. Delivery errors are
// recoverable because another target can usually be tried.
func NewDeliveryError(code, message string, cause error) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeDelivery,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *TabsidianError {
	return &TabsidianError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TabsidianError
	if errors.As(err, &te) {
		return te.Recoverable
	}

	return false
}

// IsTemplateError checks if an error came from the template engine.
func IsTemplateError(err error) bool {
	var te *TabsidianError
	if errors.As(err, &te) {
		return te.Type == ErrorTypeTemplate
	}

	return false
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var te *TabsidianError
	if !errors.As(err, &te) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch te.Type {
	case ErrorTypeTemplate, ErrorTypeValidation, ErrorTypeDelivery:
		h.logger.Warn(ctx, te, "Recoverable error occurred",
			"type", te.Type,
			"code", te.Code,
			"file", te.FilePath)
	default:
		h.logger.Error(ctx, te, "Error occurred",
			"type", te.Type,
			"code", te.Code)
	}
}

// Common error codes.
const (
	ErrCodeTemplateParse    = "ERR_TEMPLATE_PARSE"
	ErrCodeTemplateRender   = "ERR_TEMPLATE_RENDER"
	ErrCodeTemplateDepth    = "ERR_TEMPLATE_DEPTH"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeNotePathInvalid  = "ERR_NOTE_PATH_INVALID"
	ErrCodeVaultInvalid     = "ERR_VAULT_INVALID"
	ErrCodeURITooLong       = "ERR_URI_TOO_LONG"
	ErrCodeSnapshotInvalid  = "ERR_SNAPSHOT_INVALID"
	ErrCodePresetInvalid    = "ERR_PRESET_INVALID"
	ErrCodeDeliveryFailed   = "ERR_DELIVERY_FAILED"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToTabsidianError converts the validation collection to a TabsidianError.
// It returns nil when the collection is empty.
func (vec *ValidationErrorCollection) ToTabsidianError() *TabsidianError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &TabsidianError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}
