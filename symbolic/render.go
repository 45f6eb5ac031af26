package symbolic

import (
	"strconv"
	"strings"
)

// ============================================================
// Rendering helpers
// ============================================================

var greek = map[string]string{
	"alpha": `\alpha`, "beta": `\beta`, "gamma": `\gamma`, "delta": `\delta`,
	"epsilon": `\epsilon`, "zeta": `\zeta`, "eta": `\eta`, "theta": `\theta`,
	"iota": `\iota`, "kappa": `\kappa`, "lambda": `\lambda`, "mu": `\mu`,
	"nu": `\nu`, "xi": `\xi`, "pi": `\pi`, "rho": `\rho`, "sigma": `\sigma`,
	"tau": `\tau`, "upsilon": `\upsilon`, "phi": `\phi`, "chi": `\chi`,
	"psi": `\psi`, "omega": `\omega`,
	"Gamma": `\Gamma`, "Delta": `\Delta`, "Theta": `\Theta`, "Lambda": `\Lambda`,
	"Xi": `\Xi`, "Pi": `\Pi`, "Sigma": `\Sigma`, "Phi": `\Phi`, "Psi": `\Psi`,
	"Omega": `\Omega`,
}

// symbolLaTeX renders greek names as commands and the part after the first
// underscore as a subscript: "phi_0" -> \phi_{0}.
func symbolLaTeX(name string) string {
	head, sub, hasSub := strings.Cut(name, "_")
	if g, ok := greek[head]; ok {
		head = g
	}
	if !hasSub || sub == "" {
		return head
	}
	return head + "_{" + symbolLaTeX(sub) + "}"
}

// FormatFloat renders v with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// needsParens reports whether e must be bracketed as a power base.
func needsParens(e Expr) bool {
	switch v := e.(type) {
	case *Add, *Mul, *Pow:
		return true
	case *Num:
		return v.IsNegative() || !v.IsInteger()
	case *Lit:
		return v.value < 0 || v.Annotated()
	}
	return false
}

// isNumeric reports whether e renders starting with a digit, a sign or a unit
// macro, in which case juxtaposition would be ambiguous.
func isNumeric(e Expr) bool {
	switch v := e.(type) {
	case *Num, *Lit:
		return true
	case *Pow:
		return isNumeric(v.base) && !needsParens(v.base)
	}
	return false
}

func joinFactorsLaTeX(factors []Expr) string {
	var sb strings.Builder
	for i, f := range factors {
		if i > 0 {
			if isNumeric(f) {
				sb.WriteString(" \\cdot ")
			} else {
				sb.WriteString(" ")
			}
		}
		switch v := f.(type) {
		case *Add:
			if len(factors) == 1 {
				sb.WriteString(f.LaTeX())
			} else {
				sb.WriteString("\\left(" + f.LaTeX() + "\\right)")
			}
		case *Lit:
			if i > 0 && v.value < 0 {
				sb.WriteString("\\left(" + f.LaTeX() + "\\right)")
			} else {
				sb.WriteString(f.LaTeX())
			}
		default:
			sb.WriteString(f.LaTeX())
		}
	}
	return sb.String()
}

// negated returns -e when e carries a visibly negative leading coefficient.
func negated(e Expr) (Expr, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		if len(v.factors) < 2 {
			return nil, false
		}
		c, ok := v.factors[0].(*Num)
		if !ok || !c.IsNegative() {
			return nil, false
		}
		rest := v.factors[1:]
		if !c.IsNegOne() {
			return &Mul{factors: append([]Expr{numNeg(c)}, rest...)}, true
		}
		if _, isAdd := rest[0].(*Add); len(rest) == 1 && !isAdd {
			return rest[0], true
		}
		return &Mul{factors: rest}, true
	}
	return nil, false
}
