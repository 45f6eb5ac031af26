// Package symbolic provides the deterministic expression kernel used by errprop.
//
// Design goals:
//   - Immutable expression trees with exact rational constants (math/big.Rat)
//   - Structural differentiation with the classic sum, product, power and chain rules
//   - Literal substitution that keeps the unevaluated shape for display
//   - float64 evaluation against an environment of bound symbols
//   - Stable String and LaTeX output, plus a JSON wire format
package symbolic

import (
	"fmt"
	"math"
	"math/big"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable algebraic term.
//
// Sub plugs a value in structurally without simplifying, so the result keeps the
// shape of the receiver. Diff returns the partial derivative with respect to
// varName, or an error wrapping ErrNoRule. Eval reports false when a symbol is
// unbound in env or a function has no numeric implementation.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) (Expr, error)
	Eval(env Env) (float64, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// Env binds symbol names to numeric values for Eval.
type Env map[string]float64

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float64 exactly. It panics on NaN or Inf.
func NFloat(f float64) *Num {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("symbolic: cannot represent %v exactly", f))
	}
	return &Num{val: new(big.Rat).SetFloat64(f)}
}

func (n *Num) Simplify() Expr             { return n }
func (n *Num) Sub(string, Expr) Expr      { return n }
func (n *Num) Diff(string) (Expr, error)  { return N(0), nil }
func (n *Num) Eval(Env) (float64, bool)   { return n.Float64(), true }
func (n *Num) Equal(other Expr) bool      { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string           { return "num" }
func (n *Num) Float64() float64           { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool               { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool                { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool             { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool            { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat              { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool           { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool           { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numAbs(a *Num) *Num {
	r := new(big.Rat).Set(a.val)
	if r.Sign() < 0 {
		r.Neg(r)
	}
	return &Num{val: r}
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string  { return symbolLaTeX(s.name) }
func (s *Sym) Eval(env Env) (float64, bool) {
	v, ok := env[s.name]
	return v, ok
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) (Expr, error) {
	if s.name == varName {
		return N(1), nil
	}
	return N(0), nil
}

// ============================================================
// Lit: measured literal
// ============================================================

// Lit is a measured value carrying an optional unit label. Simplification never
// folds a Lit into neighbouring constants, so a substituted expression renders
// with every measured value in the position its symbol occupied.
type Lit struct {
	value float64
	unit  string
}

func L(value float64, unit string) *Lit { return &Lit{value: value, unit: unit} }

func (l *Lit) Simplify() Expr            { return l }
func (l *Lit) Sub(string, Expr) Expr     { return l }
func (l *Lit) Diff(string) (Expr, error) { return N(0), nil }
func (l *Lit) Eval(Env) (float64, bool)  { return l.value, true }
func (l *Lit) exprType() string          { return "lit" }
func (l *Lit) Value() float64            { return l.value }
func (l *Lit) Unit() string              { return l.unit }
func (l *Lit) String() string            { return FormatFloat(l.value) }

// Annotated reports whether LaTeX wraps the value in a unit macro. Zero values
// and values without a unit are left bare.
func (l *Lit) Annotated() bool { return l.value != 0 && l.unit != "" }

func (l *Lit) LaTeX() string {
	if !l.Annotated() {
		return FormatFloat(l.value)
	}
	return "\\SI{" + FormatFloat(l.value) + "}{" + l.unit + "}"
}

func (l *Lit) Equal(other Expr) bool {
	o, ok := other.(*Lit)
	return ok && o.unit == l.unit && (o.value == l.value || math.IsNaN(o.value) && math.IsNaN(l.value))
}

func (l *Lit) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "lit", "value": l.value}
	if l.unit != "" {
		m["unit"] = l.unit
	}
	return m
}
