package errprop

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinels for errors.Is. Every error returned by this package matches
// exactly one of them.
var (
	ErrSignature          = errors.New("errprop: unresolvable formula signature")
	ErrDifferentiation    = errors.New("errprop: no differentiation rule")
	ErrMissingMeasurement = errors.New("errprop: missing measurement")
)

// SignatureError reports a formula whose variable list cannot be resolved
// unambiguously.
type SignatureError struct {
	Name   string
	Reason string
}

func (e *SignatureError) Error() string {
	if e.Name == "" {
		return "errprop: signature: " + e.Reason
	}
	return fmt.Sprintf("errprop: signature: variable %q: %s", e.Name, e.Reason)
}

func (e *SignatureError) Unwrap() error { return ErrSignature }

// DifferentiationError reports a function application with no derivative
// rule. Var is empty when the application does not depend on any variable.
type DifferentiationError struct {
	Var  string
	Func string
}

func (e *DifferentiationError) Error() string {
	if e.Var == "" {
		return fmt.Sprintf("errprop: no differentiation rule for %s", e.Func)
	}
	return fmt.Sprintf("errprop: no differentiation rule for %s (with respect to %q)", e.Func, e.Var)
}

func (e *DifferentiationError) Unwrap() error { return ErrDifferentiation }

// MissingMeasurementError names the absent key of a measurement mapping.
// Variable is the declared variable the key belongs to.
type MissingMeasurementError struct {
	Name     string
	Variable string
}

func (e *MissingMeasurementError) Error() string {
	return fmt.Sprintf("errprop: missing measurement %q", e.Name)
}

func (e *MissingMeasurementError) Unwrap() error { return ErrMissingMeasurement }

func signatureError(name, reason string) error {
	return errors.WithStack(&SignatureError{Name: name, Reason: reason})
}
