package modeljson

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural is matched by every *StructuralError.
	ErrStructural = errors.New("malformed document")
	// ErrTypeNotFound is matched by every *TypeNotFoundError.
	ErrTypeNotFound = errors.New("type not found")
	// ErrFeatureNotFound is matched by every *FeatureNotFoundError.
	ErrFeatureNotFound = errors.New("feature not found")
	// ErrInvalidValue is matched by every *ValueError.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDanglingReference is matched by every *DanglingReferenceError.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrUnresolvedReference is matched by every *UnresolvedReferenceError.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrNoRegistry is returned when neither the options nor the document set provide a type registry.
	ErrNoRegistry = errors.New("no type registry available")
)

// StructuralError reports input that is not a well formed envelope.
// It aborts a load.
type StructuralError struct {
	// Location is a JSON pointer like description of where the problem was found.
	Location string
	Err      error
}

func (e *StructuralError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %v", ErrStructural, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", ErrStructural, e.Location, e.Err)
}

func (e *StructuralError) Unwrap() []error {
	return []error{ErrStructural, e.Err}
}

func structural(location string, format string, args ...any) *StructuralError {
	return &StructuralError{Location: location, Err: fmt.Errorf(format, args...)}
}

// TypeNotFoundError reports a class reference that could not be resolved.
type TypeNotFoundError struct {
	Document string
	// Name is the qualified name as it appeared in the document.
	Name      string
	Namespace string
	Err       error
}

func (e *TypeNotFoundError) Error() string {
	msg := fmt.Sprintf("%s: %q in %s", ErrTypeNotFound, e.Name, e.Document)
	if e.Namespace != "" {
		msg += fmt.Sprintf(" (namespace %q)", e.Namespace)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTypeNotFound}
	}
	return []error{ErrTypeNotFound, e.Err}
}

// FeatureNotFoundError reports a data key that names no feature of the class.
type FeatureNotFoundError struct {
	Document string
	Class    string
	Feature  string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q of %s in %s", ErrFeatureNotFound, e.Feature, e.Class, e.Document)
}

func (e *FeatureNotFoundError) Unwrap() error {
	return ErrFeatureNotFound
}

// ValueError reports an attribute or reference value that could not be
// converted or assigned.
type ValueError struct {
	Document string
	// Object is the path of the owning object.
	Object  string
	Feature string
	Value   string
	Err     error
}

func (e *ValueError) Error() string {
	msg := fmt.Sprintf("%s for %s", ErrInvalidValue, e.Feature)
	if e.Object != "" {
		msg += " of " + e.Object
	}
	if e.Document != "" {
		msg += " in " + e.Document
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": %s", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValueError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidValue}
	}
	return []error{ErrInvalidValue, e.Err}
}

// DanglingReferenceError reports a reference whose target belongs to no document.
type DanglingReferenceError struct {
	Document string
	Source   string
	Feature  string
	Target   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s from %s#%s via %s to %s", ErrDanglingReference, e.Document, e.Source, e.Feature, e.Target)
}

func (e *DanglingReferenceError) Unwrap() error {
	return ErrDanglingReference
}

// UnresolvedReferenceError reports a reference token that did not resolve
// after the whole document was read.
type UnresolvedReferenceError struct {
	Document string
	Source   string
	Feature  string
	Token    string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %q from %s#%s via %s", ErrUnresolvedReference, e.Token, e.Document, e.Source, e.Feature)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrUnresolvedReference
}
