package symbolic

// ============================================================
// Convenience API
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value)
}

// SubAll substitutes every binding in order of names.
func SubAll(expr Expr, names []string, values map[string]Expr) Expr {
	out := expr
	for _, name := range names {
		if v, ok := values[name]; ok {
			out = out.Sub(name, v)
		}
	}
	return out
}

func Diff(expr Expr, varName string) (Expr, error) { return expr.Diff(varName) }

// NegOf returns -a.
func NegOf(a Expr) Expr { return MulOf(N(-1), a) }

// MinusOf returns a - b.
func MinusOf(a, b Expr) Expr { return AddOf(a, NegOf(b)) }

// DivOf returns a / b as a·b^-1; differentiating it yields the quotient rule.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// DependsOn reports whether name occurs free in e.
func DependsOn(e Expr, name string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == name
	case *Add:
		for _, t := range v.terms {
			if DependsOn(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if DependsOn(f, name) {
				return true
			}
		}
	case *Pow:
		return DependsOn(v.base, name) || DependsOn(v.exp, name)
	case *Func:
		return DependsOn(v.arg, name)
	}
	return false
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// Walk visits e and its subexpressions depth first, stopping early when visit
// returns false.
func Walk(e Expr, visit func(Expr) bool) bool {
	if !visit(e) {
		return false
	}
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !Walk(t, visit) {
				return false
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if !Walk(f, visit) {
				return false
			}
		}
	case *Pow:
		return Walk(v.base, visit) && Walk(v.exp, visit)
	case *Func:
		return Walk(v.arg, visit)
	}
	return true
}

// HasDiffRule reports whether applications of the named function can be
// differentiated.
func HasDiffRule(name string) bool {
	switch name {
	case "sin", "cos", "tan", "exp", "ln", "asin", "acos", "atan", "sinh", "cosh", "tanh", "abs":
		return true
	}
	return false
}
