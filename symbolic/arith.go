package symbolic

import (
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	symCoeffs := map[string]*Num{}
	symOrder := []string{}
	others := []Expr{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			numAccum = numAdd(numAccum, v)
		case *Sym:
			if _, seen := symCoeffs[v.name]; !seen {
				symOrder = append(symOrder, v.name)
				symCoeffs[v.name] = N(0)
			}
			symCoeffs[v.name] = numAdd(symCoeffs[v.name], N(1))
		default:
			others = append(others, t)
		}
	}
	result := []Expr{}
	sort.Strings(symOrder)
	for _, name := range symOrder {
		coeff := symCoeffs[name]
		if coeff.IsOne() {
			result = append(result, S(name))
		} else {
			result = append(result, MulOf(coeff, S(name)))
		}
	}
	result = append(result, others...)
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		if i == 0 {
			sb.WriteString(t.LaTeX())
			continue
		}
		if pos, ok := negated(t); ok {
			sb.WriteString(" - ")
			sb.WriteString(pos.LaTeX())
			continue
		}
		sb.WriteString(" + ")
		sb.WriteString(t.LaTeX())
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return &Add{terms: newTerms}
}

func (a *Add) Diff(varName string) (Expr, error) {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		d, err := t.Diff(varName)
		if err != nil {
			return nil, err
		}
		dTerms[i] = d
	}
	return AddOf(dTerms...), nil
}

func (a *Add) Eval(env Env) (float64, bool) {
	acc := 0.0
	for _, t := range a.terms {
		v, ok := t.Eval(env)
		if !ok {
			return 0, false
		}
		acc += v
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	coeff := N(1)
	others := []Expr{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
		} else {
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		_, isAdd := f.(*Add)
		if isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

// LaTeX renders a leading negative coefficient as a sign and gathers factors
// with negative constant exponents into a \frac denominator.
func (m *Mul) LaTeX() string {
	factors := m.factors
	sign := ""
	if len(factors) > 1 {
		if c, ok := factors[0].(*Num); ok && c.IsNegative() {
			sign = "-"
			if c.IsNegOne() {
				factors = factors[1:]
			} else {
				factors = append([]Expr{numNeg(c)}, factors[1:]...)
			}
		}
	}
	var num, den []Expr
	if len(factors) > 1 {
		if c, ok := factors[0].(*Num); ok && !c.IsInteger() {
			den = append(den, &Num{val: new(big.Rat).SetInt(c.val.Denom())})
			if p := c.val.Num(); !p.IsInt64() || p.Int64() != 1 {
				num = append(num, &Num{val: new(big.Rat).SetInt(p)})
			}
			factors = factors[1:]
		}
	}
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.IsNegative() {
				den = append(den, reciprocalBase(p.base, e))
				continue
			}
		}
		num = append(num, f)
	}
	if len(den) == 0 {
		return sign + joinFactorsLaTeX(num)
	}
	numStr := "1"
	if len(num) > 0 {
		numStr = joinFactorsLaTeX(num)
	}
	return sign + "\\frac{" + numStr + "}{" + joinFactorsLaTeX(den) + "}"
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return &Mul{factors: newFactors}
}

// Diff applies the n-ary product rule: Σ_i f_i' · Π_{j≠i} f_j.
func (m *Mul) Diff(varName string) (Expr, error) {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi, err := fi.Diff(varName)
		if err != nil {
			return nil, err
		}
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...), nil
}

func (m *Mul) Eval(env Env) (float64, bool) {
	acc := 1.0
	for _, f := range m.factors {
		v, ok := f.Eval(env)
		if !ok {
			return 0, false
		}
		acc *= v
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}

	// 0^0 is indeterminate and 0^negative divides by zero; keep both unevaluated.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && en.IsNegative() {
			return &Pow{base: base, exp: exp}
		}
		return N(0)
	}

	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			e := en.val.Num().Int64()
			if e >= -20 && e <= 20 {
				result := N(1)
				for i := int64(0); i < abs64(e); i++ {
					result = numMul(result, bn)
				}
				if e < 0 {
					return numRecip(result)
				}
				return result
			}
		}
	}
	// (u^a)^n = u^(a·n) holds for every integer n; fractional outer exponents
	// would drop the sign of u.
	if inner, ok := base.(*Pow); ok {
		if en, ok2 := exp.(*Num); ok2 && en.IsInteger() {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
	}
	return &Pow{base: base, exp: exp}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	if needsParens(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	if _, ok := p.exp.(*Add); ok {
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.IsNegative() {
			return "\\frac{1}{" + reciprocalBase(p.base, e).LaTeX() + "}"
		}
		if e.val.Cmp(F(1, 2).val) == 0 {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	if needsParens(p.base) {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return &Pow{base: p.base.Sub(varName, value), exp: p.exp.Sub(varName, value)}
}

// Diff picks the power rule by which operand depends on varName:
// constant exponent v·u^(v-1)·u', constant base u^v·ln(u)·v', otherwise
// u^v·(v'·ln(u) + v·u'/u).
func (p *Pow) Diff(varName string) (Expr, error) {
	baseDep := DependsOn(p.base, varName)
	expDep := DependsOn(p.exp, varName)
	switch {
	case !baseDep && !expDep:
		return N(0), nil
	case !expDep:
		du, err := p.base.Diff(varName)
		if err != nil {
			return nil, err
		}
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du), nil
	case !baseDep:
		dv, err := p.exp.Diff(varName)
		if err != nil {
			return nil, err
		}
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv), nil
	}
	du, err := p.base.Diff(varName)
	if err != nil {
		return nil, err
	}
	dv, err := p.exp.Diff(varName)
	if err != nil {
		return nil, err
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm)), nil
}

func (p *Pow) Eval(env Env) (float64, bool) {
	b, ok := p.base.Eval(env)
	if !ok {
		return 0, false
	}
	e, ok := p.exp.Eval(env)
	if !ok {
		return 0, false
	}
	return math.Pow(b, e), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// reciprocalBase returns base^(-e) for a negative constant e without
// re-simplifying base, so substituted literals stay in place.
func reciprocalBase(base Expr, e *Num) Expr {
	pos := numNeg(e)
	if pos.IsOne() {
		return base
	}
	return &Pow{base: base, exp: pos}
}
