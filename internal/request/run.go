package request

import (
	"context"
	"encoding/json"
	"math"
	"runtime"
	"strconv"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/errprop"
)

// Number is a float64 that encodes non-finite values as the strings "NaN",
// "+Inf" and "-Inf" instead of failing.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Wrapf(err, "parse number %q", s)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// TermResult is one variable's share of a result.
type TermResult struct {
	Var          string `json:"var"`
	Derivative   string `json:"derivative"`
	Magnitude    Number `json:"magnitude"`
	Contribution Number `json:"contribution"`
}

// Result is the outcome for one measurement set.
type Result struct {
	Value       Number       `json:"value"`
	Uncertainty Number       `json:"uncertainty"`
	LaTeX       string       `json:"latex"`
	Terms       []TermResult `json:"terms"`
}

// Response answers a Request. Results follow the order of the request's sets.
type Response struct {
	Results     []Result          `json:"results,omitempty"`
	Derivatives map[string]string `json:"derivatives,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Run evaluates every measurement set of r with eng, concurrently, and returns
// the results in request order. The first failing set aborts the run.
func Run(ctx context.Context, eng *errprop.Engine, r *Request, defaultPrecision int) (*Response, error) {
	precision := defaultPrecision
	if r.Precision != nil {
		precision = *r.Precision
	}
	opts := []errprop.FormatOption{
		errprop.WithPrecision(precision),
		errprop.WithResultUnit(r.ResultUnit),
		errprop.WithQuantity(r.Quantity),
	}

	sets := r.Sets()
	results := make([]Result, len(sets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range sets {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := evaluate(eng, m, opts)
			if err != nil {
				return errors.Wrapf(err, "measurement set %d", i)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	derivs := make(map[string]string, len(eng.Variables()))
	for _, p := range eng.Derivatives() {
		derivs[p.Var] = p.Expr.String()
	}
	return &Response{Results: results, Derivatives: derivs}, nil
}

func evaluate(eng *errprop.Engine, m errprop.Measurements, opts []errprop.FormatOption) (Result, error) {
	ev, err := eng.Evaluate(m)
	if err != nil {
		return Result{}, err
	}
	value, err := eng.Value(m)
	if err != nil {
		return Result{}, err
	}
	terms := make([]TermResult, len(ev.Terms))
	for i, t := range ev.Terms {
		terms[i] = TermResult{
			Var:          t.Var,
			Derivative:   t.Derivative.String(),
			Magnitude:    Number(t.Magnitude),
			Contribution: Number(t.Contribution),
		}
	}
	return Result{
		Value:       Number(value),
		Uncertainty: Number(ev.Total),
		LaTeX:       errprop.Format(ev, opts...),
		Terms:       terms,
	}, nil
}
