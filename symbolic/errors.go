package symbolic

import "github.com/cockroachdb/errors"

// ErrNoRule is matched by every differentiation failure.
var ErrNoRule = errors.New("symbolic: no differentiation rule")

// ErrDecode is matched by every JSON decoding failure.
var ErrDecode = errors.New("symbolic: invalid expression")

// NoRuleError names the function application that could not be differentiated.
type NoRuleError struct {
	Func string
}

func (e *NoRuleError) Error() string {
	return "symbolic: no differentiation rule for " + e.Func
}

func (e *NoRuleError) Unwrap() error { return ErrNoRule }
