// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrInputValidation  = errors.New("input validation failed")
	ErrBusy             = errors.New("action already in progress")
	ErrSessionClosed    = errors.New("session closed")
	ErrStaleResponse    = errors.New("stale response discarded")
	ErrReadOnlyMode     = errors.New("operation blocked: read-only mode enabled")
	ErrDataNotFound     = errors.New("data not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConnectionFailed = errors.New("connection failed")
	ErrMalformed        = errors.New("malformed response")
)

// ValidationError represents a validation error on a single field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors collects every failing field of one check.
type ValidationErrors struct {
	Errors []*ValidationError
}

// Add appends a field failure.
func (e *ValidationErrors) Add(field string, value interface{}, message string) {
	e.Errors = append(e.Errors, NewValidationError(field, value, message))
}

// Fields returns the names of the failing fields in the order they were added.
func (e *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		fields = append(fields, v.Field)
	}
	return fields
}

// Has reports whether field failed.
func (e *ValidationErrors) Has(field string) bool {
	for _, v := range e.Errors {
		if v.Field == field {
			return true
		}
	}
	return false
}

// ErrOrNil returns nil when nothing failed.
func (e *ValidationErrors) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, v := range e.Errors {
		errs = append(errs, v)
	}
	return errs
}

// AgentCallError represents a failed command against the tracking agent.
// Msg and Cause mirror the agent's error payload.
type AgentCallError struct {
	Command string
	Msg     string
	Cause   string
	Status  int
	Err     error
}

func (e *AgentCallError) Error() string {
	return fmt.Sprintf("%s, cause: %s", e.Msg, e.Cause)
}

func (e *AgentCallError) Unwrap() error {
	return e.Err
}

// NewAgentCallError creates a new AgentCallError.
func NewAgentCallError(command, msg, cause string, err error) *AgentCallError {
	return &AgentCallError{
		Command: command,
		Msg:     msg,
		Cause:   cause,
		Err:     err,
	}
}

// EnrichmentError represents a failed market data fetch.
type EnrichmentError struct {
	Kind     string // instruments, ticker
	Exchange string
	Symbol   string
	Err      error
}

func (e *EnrichmentError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("enrichment error [%s] %s %s: %v", e.Kind, e.Exchange, e.Symbol, e.Err)
	}
	return fmt.Sprintf("enrichment error [%s] %s: %v", e.Kind, e.Exchange, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// NewEnrichmentError creates a new EnrichmentError.
func NewEnrichmentError(kind, exchange, symbol string, err error) *EnrichmentError {
	return &EnrichmentError{
		Kind:     kind,
		Exchange: exchange,
		Symbol:   symbol,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInputValidation)
}
