// Package errprop propagates measurement uncertainty through a scalar formula
// with the first-order linear (worst-case) law
//
//	Δf = Σ Δxᵢ·|∂f/∂xᵢ|
//
// and renders the derivation as a LaTeX align block.
//
// A Formula declares its variables explicitly. NewEngine differentiates it once
// per variable; the resulting Engine is immutable and may evaluate any number
// of measurement sets, concurrently if desired.
//
// Usage:
//
//	f, err := errprop.Define([]string{"a", "b"}, func(x ...symbolic.Expr) symbolic.Expr {
//	    a, b := x[0], x[1]
//	    return symbolic.AddOf(a, symbolic.MulOf(a, symbolic.PowOf(b, symbolic.N(3))))
//	})
//	eng, err := errprop.NewEngine(f)
//	m := errprop.Measurements{}.
//	    Set("a", 1, `\volt`, 0.4, `\volt`).
//	    Set("b", 2, "", 0.5, "")
//	block, err := eng.LaTeX(m)
package errprop

import (
	"regexp"
	"sort"
	"strings"

	"github.com/njchilds90/errprop/symbolic"
)

var identRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Formula is a scalar expression over an ordered list of declared variables.
type Formula struct {
	vars []string
	body symbolic.Expr
}

// Define resolves the formula's signature from vars and builds its body by
// calling body once with one symbol per variable, in declaration order.
func Define(vars []string, body func(x ...symbolic.Expr) symbolic.Expr) (*Formula, error) {
	if body == nil {
		return nil, signatureError("", "nil formula body")
	}
	if err := checkVariables(vars); err != nil {
		return nil, err
	}
	placeholders := make([]symbolic.Expr, len(vars))
	for i, name := range vars {
		placeholders[i] = symbolic.S(name)
	}
	return DefineExpr(vars, body(placeholders...))
}

// DefineExpr pairs an already built body with its declared variables. Every
// symbol in body must be declared; declared variables need not all appear.
func DefineExpr(vars []string, body symbolic.Expr) (*Formula, error) {
	if err := checkVariables(vars); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, signatureError("", "formula body is nil")
	}
	declared := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		declared[v] = struct{}{}
	}
	var undeclared []string
	for name := range symbolic.FreeSymbols(body) {
		if _, ok := declared[name]; !ok {
			undeclared = append(undeclared, name)
		}
	}
	if len(undeclared) > 0 {
		sort.Strings(undeclared)
		return nil, signatureError(undeclared[0], "used in the formula body but not declared")
	}
	return &Formula{vars: append([]string(nil), vars...), body: body}, nil
}

func checkVariables(vars []string) error {
	if len(vars) == 0 {
		return signatureError("", "formula declares no variables")
	}
	seen := make(map[string]struct{}, len(vars))
	for _, name := range vars {
		switch {
		case name == "":
			return signatureError(name, "empty variable name")
		case !identRE.MatchString(name):
			return signatureError(name, "not an identifier")
		case strings.HasPrefix(name, UncertaintyPrefix):
			return signatureError(name, "collides with the uncertainty prefix "+UncertaintyPrefix)
		}
		if _, dup := seen[name]; dup {
			return signatureError(name, "declared more than once")
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Variables returns the declared variable names in order.
func (f *Formula) Variables() []string { return append([]string(nil), f.vars...) }

// Body returns the formula expression.
func (f *Formula) Body() symbolic.Expr { return f.body }

func (f *Formula) String() string {
	return "f(" + strings.Join(f.vars, ", ") + ") = " + f.body.String()
}
