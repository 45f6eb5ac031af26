package errprop

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/njchilds90/errprop/symbolic"
)

// Term is one variable's share of the propagated uncertainty.
type Term struct {
	Var   string
	Value Measurement
	Delta Measurement
	// Derivative is ∂f/∂Var as cached by the engine.
	Derivative symbolic.Expr
	// Substituted is Derivative with every variable replaced by its measured
	// literal, unevaluated, for display.
	Substituted symbolic.Expr
	// Magnitude is |Derivative| evaluated at the measurement point.
	Magnitude float64
	// Contribution is Delta.Value * Magnitude.
	Contribution float64
}

// Evaluation is the result of evaluating an engine at one measurement set.
type Evaluation struct {
	Terms []Term
	Total float64
}

// Evaluate binds m and evaluates every cached partial derivative. All declared
// variables and their uncertainties must be present in m.
func (e *Engine) Evaluate(m Measurements) (*Evaluation, error) {
	if err := m.require(e.formula.vars); err != nil {
		return nil, err
	}

	env := make(symbolic.Env, len(e.formula.vars))
	literals := make(map[string]symbolic.Expr, len(e.formula.vars))
	for _, v := range e.formula.vars {
		env[v] = m[v].Value
		literals[v] = m[v].Literal()
	}

	terms := make([]Term, len(e.partials))
	for i, p := range e.partials {
		val, ok := p.Expr.Eval(env)
		if !ok {
			return nil, errors.AssertionFailedf("derivative %s cannot be evaluated", p.Expr)
		}
		delta := m[UncertaintyName(p.Var)]
		mag := math.Abs(val)
		terms[i] = Term{
			Var:          p.Var,
			Value:        m[p.Var],
			Delta:        delta,
			Derivative:   p.Expr,
			Substituted:  symbolic.SubAll(p.Expr, e.formula.vars, literals),
			Magnitude:    mag,
			Contribution: delta.Value * mag,
		}
	}

	ev := &Evaluation{Terms: terms, Total: Aggregate(terms)}
	for _, obs := range e.observers {
		obs.Evaluated(ev)
	}
	return ev, nil
}

// Value evaluates the formula itself at the measured values.
func (e *Engine) Value(m Measurements) (float64, error) {
	for _, v := range e.formula.vars {
		if _, ok := m[v]; !ok {
			err := errors.WithStack(&MissingMeasurementError{Name: v, Variable: v})
			return 0, errors.WithHintf(err, "add an entry %q to the measurement mapping", v)
		}
	}
	env := make(symbolic.Env, len(e.formula.vars))
	for _, v := range e.formula.vars {
		env[v] = m[v].Value
	}
	val, ok := e.formula.body.Eval(env)
	if !ok {
		return 0, errors.AssertionFailedf("formula %s cannot be evaluated", e.formula.body)
	}
	return val, nil
}
