package errprop_test

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/errprop"
	"github.com/njchilds90/errprop/symbolic"
)

// a + a·b³
func cubicEngine(t *testing.T, opts ...errprop.Option) *errprop.Engine {
	t.Helper()
	f, err := errprop.Define([]string{"a", "b"}, func(x ...symbolic.Expr) symbolic.Expr {
		a, b := x[0], x[1]
		return symbolic.AddOf(a, symbolic.MulOf(a, symbolic.PowOf(b, symbolic.N(3))))
	})
	require.NoError(t, err)
	eng, err := errprop.NewEngine(f, opts...)
	require.NoError(t, err)
	return eng
}

func cubicMeasurements() errprop.Measurements {
	return errprop.Measurements{}.
		Set("a", 1, `\volt`, 0.4, `\volt`).
		Set("b", 2, "", 0.5, "")
}

func TestEngine_DerivativeMapMatchesSignature(t *testing.T) {
	eng := cubicEngine(t)
	partials := eng.Derivatives()
	require.Len(t, partials, 2)
	keys := make([]string, len(partials))
	for i, p := range partials {
		keys[i] = p.Var
	}
	assert.Equal(t, eng.Variables(), keys)

	_, ok := eng.Derivative("c")
	assert.False(t, ok)
}

func TestEngine_CubicPartials(t *testing.T) {
	eng := cubicEngine(t)
	da, ok := eng.Derivative("a")
	require.True(t, ok)
	db, ok := eng.Derivative("b")
	require.True(t, ok)
	assert.Equal(t, "b^3 + 1", da.String())
	assert.Equal(t, "3*a*b^2", db.String())
}

func TestEngine_CubicUncertainty(t *testing.T) {
	eng := cubicEngine(t)
	ev, err := eng.Evaluate(cubicMeasurements())
	require.NoError(t, err)
	require.Len(t, ev.Terms, 2)

	assert.Equal(t, "a", ev.Terms[0].Var)
	assert.InDelta(t, 9.0, ev.Terms[0].Magnitude, 1e-12)
	assert.InDelta(t, 3.6, ev.Terms[0].Contribution, 1e-12)
	assert.Equal(t, "b", ev.Terms[1].Var)
	assert.InDelta(t, 12.0, ev.Terms[1].Magnitude, 1e-12)
	assert.InDelta(t, 6.0, ev.Terms[1].Contribution, 1e-12)
	assert.InDelta(t, 9.6, ev.Total, 1e-12)

	total, err := eng.Uncertainty(cubicMeasurements())
	require.NoError(t, err)
	assert.Equal(t, ev.Total, total)
}

func TestEngine_Value(t *testing.T) {
	eng := cubicEngine(t)
	v, err := eng.Value(cubicMeasurements())
	require.NoError(t, err)
	assert.InDelta(t, 9.0, v, 1e-12)

	_, err = eng.Value(errprop.Measurements{"a": {Value: 1}})
	assert.True(t, errors.Is(err, errprop.ErrMissingMeasurement))
}

func TestEngine_Identity(t *testing.T) {
	f, err := errprop.Define([]string{"x"}, func(x ...symbolic.Expr) symbolic.Expr { return x[0] })
	require.NoError(t, err)
	eng, err := errprop.NewEngine(f)
	require.NoError(t, err)

	d, _ := eng.Derivative("x")
	assert.Equal(t, "1", d.String())
	for _, dx := range []float64{0, 0.001, 0.25, 17} {
		total, err := eng.Uncertainty(errprop.Measurements{}.Set("x", 3.3, "", dx, ""))
		require.NoError(t, err)
		assert.Equal(t, dx, total)
	}
}

func TestEngine_UnusedVariableContributesNothing(t *testing.T) {
	f, err := errprop.Define([]string{"x", "y"}, func(x ...symbolic.Expr) symbolic.Expr {
		return symbolic.PowOf(x[0], symbolic.N(2))
	})
	require.NoError(t, err)
	eng, err := errprop.NewEngine(f)
	require.NoError(t, err)

	d, _ := eng.Derivative("y")
	assert.Equal(t, "0", d.String())

	ev, err := eng.Evaluate(errprop.Measurements{}.Set("x", 3, "", 0.1, "").Set("y", 5, "", 1e6, ""))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev.Terms[1].Contribution)
	assert.InDelta(t, 0.6, ev.Total, 1e-12)
}

func TestEngine_MissingMeasurement(t *testing.T) {
	eng := cubicEngine(t)
	for _, key := range []string{"a", "b", "delta_a", "delta_b"} {
		t.Run(key, func(t *testing.T) {
			m := cubicMeasurements()
			delete(m, key)

			ev, err := eng.Evaluate(m)
			require.Error(t, err)
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, errprop.ErrMissingMeasurement))
			var mm *errprop.MissingMeasurementError
			require.True(t, errors.As(err, &mm))
			assert.Equal(t, key, mm.Name)
			assert.NotEmpty(t, errors.GetAllHints(err))

			_, err = eng.Uncertainty(m)
			assert.True(t, errors.Is(err, errprop.ErrMissingMeasurement))
			_, err = eng.LaTeX(m)
			assert.True(t, errors.Is(err, errprop.ErrMissingMeasurement))
		})
	}
}

func TestEngine_MissingMeasurementReportsFirstInOrder(t *testing.T) {
	eng := cubicEngine(t)
	_, err := eng.Evaluate(errprop.Measurements{"b": {Value: 2}})
	var mm *errprop.MissingMeasurementError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "a", mm.Name)
}

func TestEngine_DifferentiationError(t *testing.T) {
	f, err := errprop.Define([]string{"x", "y"}, func(x ...symbolic.Expr) symbolic.Expr {
		return symbolic.AddOf(x[0], symbolic.FloorOf(x[1]))
	})
	require.NoError(t, err)
	_, err = errprop.NewEngine(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errprop.ErrDifferentiation))
	var de *errprop.DifferentiationError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "floor", de.Func)
	assert.Equal(t, "y", de.Var)
}

func TestEngine_DifferentiationErrorConstantApplication(t *testing.T) {
	f, err := errprop.Define([]string{"x"}, func(x ...symbolic.Expr) symbolic.Expr {
		return symbolic.MulOf(x[0], symbolic.Call("gamma", symbolic.N(3)))
	})
	require.NoError(t, err)
	_, err = errprop.NewEngine(f)
	var de *errprop.DifferentiationError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "gamma", de.Func)
	assert.Empty(t, de.Var)
}

func TestEngine_NilFormula(t *testing.T) {
	_, err := errprop.NewEngine(nil)
	assert.True(t, errors.Is(err, errprop.ErrSignature))
}

func TestEngine_Idempotent(t *testing.T) {
	eng := cubicEngine(t)
	m := cubicMeasurements()

	first, err := eng.Evaluate(m)
	require.NoError(t, err)
	second, err := eng.Evaluate(m)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(first.Total), math.Float64bits(second.Total))

	a, err := eng.LaTeX(m)
	require.NoError(t, err)
	b, err := eng.LaTeX(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEngine_ConcurrentEvaluation(t *testing.T) {
	eng := cubicEngine(t)
	const n = 32
	sets := make([]errprop.Measurements, n)
	want := make([]float64, n)
	for i := range sets {
		sets[i] = errprop.Measurements{}.Set("a", float64(i), "", 0.1, "").Set("b", float64(i%5), "", 0.2, "")
		total, err := eng.Uncertainty(sets[i])
		require.NoError(t, err)
		want[i] = total
	}

	got := make([]float64, n)
	var g errgroup.Group
	for i := range sets {
		i := i
		g.Go(func() error {
			total, err := eng.Uncertainty(sets[i])
			got[i] = total
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, want, got)
}

func TestEngine_Observer(t *testing.T) {
	var differentiated, evaluated int
	var seen []string
	obs := errprop.ObserverFuncs{
		OnDifferentiated: func(vars []string, partials []errprop.Partial) {
			differentiated++
			seen = vars
		},
		OnEvaluated: func(ev *errprop.Evaluation) { evaluated++ },
	}
	eng := cubicEngine(t, errprop.WithObserver(obs))
	assert.Equal(t, 1, differentiated)
	assert.Equal(t, []string{"a", "b"}, seen)

	for i := 0; i < 3; i++ {
		_, err := eng.Evaluate(cubicMeasurements())
		require.NoError(t, err)
	}
	_, err := eng.Evaluate(errprop.Measurements{})
	require.Error(t, err)
	assert.Equal(t, 1, differentiated, "evaluation must not re-differentiate")
	assert.Equal(t, 3, evaluated)
}

func TestEngine_PrismDeviation(t *testing.T) {
	// n = sin((d+φ)/2) / sin(φ/2)
	f, err := errprop.Define([]string{"d", "phi"}, func(x ...symbolic.Expr) symbolic.Expr {
		d, phi := x[0], x[1]
		half := symbolic.F(1, 2)
		return symbolic.DivOf(
			symbolic.SinOf(symbolic.MulOf(half, symbolic.AddOf(d, phi))),
			symbolic.SinOf(symbolic.MulOf(half, phi)),
		)
	})
	require.NoError(t, err)
	eng, err := errprop.NewEngine(f)
	require.NoError(t, err)

	rad := math.Pi / 180
	d, phi, dd, dphi := 38.4*rad, 60.1*rad, 0.06*rad, 0.05*rad
	m := errprop.Measurements{}.Set("d", d, "", dd, "").Set("phi", phi, "", dphi, "")

	s, c := math.Sin((d+phi)/2), math.Cos((d+phi)/2)
	sp, cp := math.Sin(phi/2), math.Cos(phi/2)
	wantD := c / 2 / sp
	wantPhi := (c/2*sp - s*cp/2) / (sp * sp)

	ev, err := eng.Evaluate(m)
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(wantD), ev.Terms[0].Magnitude, 1e-12)
	assert.InDelta(t, math.Abs(wantPhi), ev.Terms[1].Magnitude, 1e-12)
	assert.InDelta(t, dd*math.Abs(wantD)+dphi*math.Abs(wantPhi), ev.Total, 1e-12)
}

func TestAggregate_LinearLaw(t *testing.T) {
	terms := []errprop.Term{{Contribution: 1.5}, {Contribution: 2.5}, {Contribution: 0}}
	assert.Equal(t, 4.0, errprop.Aggregate(terms))
	assert.Equal(t, 0.0, errprop.Aggregate(nil))
}
