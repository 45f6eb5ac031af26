package errprop

import (
	"github.com/cockroachdb/errors"

	"github.com/njchilds90/errprop/symbolic"
)

// UncertaintyPrefix derives the key of a variable's uncertainty entry.
const UncertaintyPrefix = "delta_"

// UncertaintyName returns the measurement key holding the uncertainty of name.
func UncertaintyName(name string) string { return UncertaintyPrefix + name }

// Measurement is a measured value with an optional display unit, e.g. `\volt`.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Literal returns the value as an unevaluated literal for substitution.
func (m Measurement) Literal() *symbolic.Lit { return symbolic.L(m.Value, m.Unit) }

// Measurements maps variable names and their "delta_" uncertainty names to
// measurements.
type Measurements map[string]Measurement

// Set records a value and its uncertainty for name and returns m. m must be
// non-nil.
func (m Measurements) Set(name string, value float64, unit string, delta float64, deltaUnit string) Measurements {
	m[name] = Measurement{Value: value, Unit: unit}
	m[UncertaintyName(name)] = Measurement{Value: delta, Unit: deltaUnit}
	return m
}

// Clone returns a shallow copy of m.
func (m Measurements) Clone() Measurements {
	out := make(Measurements, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// require checks that every variable and its uncertainty are present, in
// declaration order, and reports the first absent key.
func (m Measurements) require(vars []string) error {
	for _, v := range vars {
		for _, key := range [...]string{v, UncertaintyName(v)} {
			if _, ok := m[key]; ok {
				continue
			}
			err := errors.WithStack(&MissingMeasurementError{Name: key, Variable: v})
			return errors.WithHintf(err, "add an entry %q to the measurement mapping", key)
		}
	}
	return nil
}
