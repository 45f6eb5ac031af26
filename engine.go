package errprop

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/njchilds90/errprop/symbolic"
)

// Partial is the closed-form partial derivative of a formula with respect to
// one variable.
type Partial struct {
	Var  string
	Expr symbolic.Expr
}

// Engine holds a formula and its derivative map. It is never mutated after
// NewEngine returns.
type Engine struct {
	formula   *Formula
	partials  []Partial
	index     map[string]int
	observers []Observer
}

// Option configures NewEngine.
type Option func(*engineOptions)

type engineOptions struct {
	log       *zap.SugaredLogger
	observers []Observer
}

// WithObserver attaches an observer in addition to the debug log observer.
func WithObserver(o Observer) Option {
	return func(opts *engineOptions) {
		if o != nil {
			opts.observers = append(opts.observers, o)
		}
	}
}

// WithLogger replaces the component logger used for debug events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(opts *engineOptions) { opts.log = l }
}

// NewEngine differentiates f once per declared variable.
func NewEngine(f *Formula, opts ...Option) (*Engine, error) {
	if f == nil {
		return nil, signatureError("", "nil formula")
	}
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkRules(f); err != nil {
		return nil, err
	}

	e := &Engine{
		formula:   f,
		partials:  make([]Partial, len(f.vars)),
		index:     make(map[string]int, len(f.vars)),
		observers: append([]Observer{newLogObserver(o.log)}, o.observers...),
	}
	for i, v := range f.vars {
		d, err := f.body.Diff(v)
		if err != nil {
			var nr *symbolic.NoRuleError
			if errors.As(err, &nr) {
				return nil, errors.WithStack(&DifferentiationError{Var: v, Func: nr.Func})
			}
			return nil, errors.Wrapf(err, "differentiate with respect to %q", v)
		}
		e.partials[i] = Partial{Var: v, Expr: d}
		e.index[v] = i
	}

	vars, partials := e.Variables(), e.Derivatives()
	for _, obs := range e.observers {
		obs.Differentiated(vars, partials)
	}
	return e, nil
}

// checkRules rejects bodies containing functions with no derivative rule,
// including applications that are constant in every variable: those could be
// neither differentiated nor evaluated consistently.
func checkRules(f *Formula) error {
	var bad *symbolic.Func
	symbolic.Walk(f.body, func(e symbolic.Expr) bool {
		if fn, ok := e.(*symbolic.Func); ok && !symbolic.HasDiffRule(fn.FuncName()) {
			bad = fn
			return false
		}
		return true
	})
	if bad == nil {
		return nil
	}
	for _, v := range f.vars {
		if symbolic.DependsOn(bad, v) {
			return errors.WithStack(&DifferentiationError{Var: v, Func: bad.FuncName()})
		}
	}
	return errors.WithStack(&DifferentiationError{Func: bad.FuncName()})
}

// Formula returns the formula the engine was built for.
func (e *Engine) Formula() *Formula { return e.formula }

// Variables returns the declared variables in order.
func (e *Engine) Variables() []string { return e.formula.Variables() }

// Derivatives returns a copy of the derivative map in declaration order.
func (e *Engine) Derivatives() []Partial { return append([]Partial(nil), e.partials...) }

// Derivative returns ∂f/∂name.
func (e *Engine) Derivative(name string) (symbolic.Expr, bool) {
	i, ok := e.index[name]
	if !ok {
		return nil, false
	}
	return e.partials[i].Expr, true
}
