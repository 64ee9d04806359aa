// Package errs implements meld's four-tier error taxonomy: configuration
// errors, registration errors, runtime errors, and logic violations. One
// struct per tier, each implementing Error and Unwrap.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports a problem resolving a plugin's configuration: an
// unknown plugin, a missing required option, or a type mismatch in
// config.Get[T].
type ConfigError struct {
	Plugin  string
	Key     string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error for plugin %q, key %q: %s", e.Plugin, e.Key, e.Message)
	}
	return fmt.Sprintf("configuration error for plugin %q: %s", e.Plugin, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError builds a ConfigError.
func NewConfigError(plugin, key, message string) *ConfigError {
	return &ConfigError{Plugin: plugin, Key: key, Message: message}
}

// RegistrationError reports a problem discovered while building the graph:
// a duplicate qualified name, an arity mismatch, a reference to an
// undeclared predicate, or a fold with no initializer.
type RegistrationError struct {
	QualifiedName string
	Message       string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration error for %q: %s", e.QualifiedName, e.Message)
}

// NewRegistrationError builds a RegistrationError.
func NewRegistrationError(qualifiedName, message string) *RegistrationError {
	return &RegistrationError{QualifiedName: qualifiedName, Message: message}
}

// RegistrationErrors aggregates every RegistrationError found while
// building a graph. Build() fails with this type if the list is non-empty.
type RegistrationErrors struct {
	Errors []error
}

func (e *RegistrationErrors) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d registration error(s): %s", len(e.Errors), strings.Join(parts, "; "))
}

// Add appends an error to the aggregate list.
func (e *RegistrationErrors) Add(err error) {
	e.Errors = append(e.Errors, err)
}

// HasErrors reports whether any error has been recorded.
func (e *RegistrationErrors) HasErrors() bool { return len(e.Errors) > 0 }

// AsError returns the aggregate as an error, or nil if it is empty.
func (e *RegistrationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// RuntimeError reports a fatal failure during execution: a kernel error, a
// source driver failure, or a store lookup that missed a required label.
// All runtime errors are fatal; the scheduler drains and stops on the
// first one.
type RuntimeError struct {
	QualifiedName string
	LevelID       string
	Message       string
	Cause         error
}

func (e *RuntimeError) Error() string {
	if e.LevelID != "" {
		return fmt.Sprintf("runtime error in %q at %s: %s", e.QualifiedName, e.LevelID, e.Message)
	}
	return fmt.Sprintf("runtime error in %q: %s", e.QualifiedName, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// NewRuntimeError builds a RuntimeError wrapping cause.
func NewRuntimeError(qualifiedName, levelID, message string, cause error) *RuntimeError {
	return &RuntimeError{QualifiedName: qualifiedName, LevelID: levelID, Message: message, Cause: cause}
}

// LogicError reports an assertable invariant violation: a product label set
// twice on one store, a product added to a flush store, a store re-admitted
// after its level's flush, or a fold input with no ancestor at the fold's
// partition level. Always fatal, never retried. A flush whose expected child
// count disagrees with the inputs a fold receives is not detected.
type LogicError struct {
	Message string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.Message)
}

// NewLogicError builds a LogicError.
func NewLogicError(message string) *LogicError {
	return &LogicError{Message: message}
}

// IsFatal reports whether err belongs to one of the two always-fatal tiers
// (runtime error or logic violation).
func IsFatal(err error) bool {
	var re *RuntimeError
	var le *LogicError
	return errors.As(err, &re) || errors.As(err, &le)
}
