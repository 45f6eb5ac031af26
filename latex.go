package errprop

import (
	"strconv"
	"strings"

	"github.com/njchilds90/errprop/symbolic"
)

// DefaultPrecision is the number of decimals of the rendered result.
const DefaultPrecision = 6

type formatOptions struct {
	precision  int
	resultUnit string
	quantity   string
}

// FormatOption configures Render and Format.
type FormatOption func(*formatOptions)

// WithPrecision sets the number of decimals of the result line. Negative
// values are ignored.
func WithPrecision(n int) FormatOption {
	return func(o *formatOptions) {
		if n >= 0 {
			o.precision = n
		}
	}
}

// WithResultUnit sets the unit of the result line.
func WithResultUnit(unit string) FormatOption {
	return func(o *formatOptions) { o.resultUnit = unit }
}

// WithQuantity names the propagated quantity on the left-hand side, "f" by
// default.
func WithQuantity(name string) FormatOption {
	return func(o *formatOptions) {
		if name != "" {
			o.quantity = name
		}
	}
}

// Derivation holds the three rendered lines of a derivation block.
type Derivation struct {
	Quantity    string
	Generic     string
	Substituted string
	Result      string
}

// String assembles the lines into an align* block.
func (d Derivation) String() string {
	var sb strings.Builder
	sb.WriteString("\\begin{align*}\n")
	sb.WriteString("    \\Delta " + d.Quantity + " &= " + d.Generic + "\\\\\n")
	sb.WriteString("    &= " + d.Substituted + "\\\\\n")
	sb.WriteString("    &= " + d.Result + "\n")
	sb.WriteString("\\end{align*}\n")
	return sb.String()
}

// Render produces the generic law, the substituted law and the numeric
// result of ev. Measured values are annotated positionally by their literals,
// never by searching the rendered text.
func Render(ev *Evaluation, opts ...FormatOption) Derivation {
	o := formatOptions{precision: DefaultPrecision, quantity: "f"}
	for _, opt := range opts {
		opt(&o)
	}

	generic := make([]string, len(ev.Terms))
	substituted := make([]string, len(ev.Terms))
	for i, t := range ev.Terms {
		generic[i] = "\\Delta " + symbolic.S(t.Var).LaTeX() + " \\cdot " + absLaTeX(t.Derivative)
		substituted[i] = t.Delta.Literal().LaTeX() + " \\cdot " + absLaTeX(t.Substituted)
	}

	return Derivation{
		Quantity:    symbolic.S(o.quantity).LaTeX(),
		Generic:     strings.Join(generic, " + "),
		Substituted: strings.Join(substituted, " + "),
		Result:      "\\SI{" + strconv.FormatFloat(ev.Total, 'f', o.precision, 64) + "}{" + o.resultUnit + "}",
	}
}

// Format renders ev as an align* block.
func Format(ev *Evaluation, opts ...FormatOption) string {
	return Render(ev, opts...).String()
}

// LaTeX evaluates m and renders the derivation block.
func (e *Engine) LaTeX(m Measurements, opts ...FormatOption) (string, error) {
	ev, err := e.Evaluate(m)
	if err != nil {
		return "", err
	}
	return Format(ev, opts...), nil
}

func absLaTeX(e symbolic.Expr) string {
	return "\\left|" + e.LaTeX() + "\\right|"
}
