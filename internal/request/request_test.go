package request_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/errprop"
	"github.com/njchilds90/errprop/internal/request"
	"github.com/njchilds90/errprop/symbolic"
)

// a + a·b³
const cubicFormula = `{"type":"add","terms":[
	{"type":"sym","name":"a"},
	{"type":"mul","factors":[
		{"type":"sym","name":"a"},
		{"type":"pow","base":{"type":"sym","name":"b"},"exp":{"type":"num","value":"3"}}
	]}
]}`

const cubicMeasurements = `{
	"a": {"value": 1, "unit": "\\volt"},
	"delta_a": {"value": 0.4, "unit": "\\volt"},
	"b": {"value": 2},
	"delta_b": {"value": 0.5}
}`

func cubicRequest(t *testing.T, extra string) *request.Request {
	t.Helper()
	body := `{"variables":["a","b"],"formula":` + cubicFormula + `,"measurements":` + cubicMeasurements + extra + `}`
	req, err := request.Decode(strings.NewReader(body))
	require.NoError(t, err)
	return req
}

func TestDecode_Valid(t *testing.T) {
	req := cubicRequest(t, `,"precision":2,"result_unit":"\\volt","quantity":"U"`)
	assert.Equal(t, []string{"a", "b"}, req.Variables)
	require.NotNil(t, req.Precision)
	assert.Equal(t, 2, *req.Precision)
	assert.Equal(t, `\volt`, req.ResultUnit)
	assert.Equal(t, "U", req.Quantity)
	assert.Len(t, req.Sets(), 1)
	assert.Equal(t, errprop.Measurement{Value: 1, Unit: `\volt`}, req.Sets()[0]["a"])
}

func TestDecode_Rejects(t *testing.T) {
	formula := `"formula":{"type":"sym","name":"x"}`
	m := `"measurements":{"x":{"value":1},"delta_x":{"value":0.1}}`
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"variables":["x"],` + formula + `,` + m + `,"extra":1}`},
		{"trailing data", `{"variables":["x"],` + formula + `,` + m + `} {}`},
		{"missing formula", `{"variables":["x"],` + m + `}`},
		{"no measurements", `{"variables":["x"],` + formula + `}`},
		{"both measurements and series", `{"variables":["x"],` + formula + `,` + m + `,"series":[{}]}`},
		{"negative precision", `{"variables":["x"],` + formula + `,` + m + `,"precision":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := request.Decode(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, request.ErrBadRequest))
			assert.True(t, request.IsClientError(err))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		vars    []string
		formula string
		want    error
	}{
		{"bad expression", []string{"x"}, `{"type":"bogus"}`, symbolic.ErrDecode},
		{"undeclared symbol", []string{"x"}, `{"type":"sym","name":"y"}`, errprop.ErrSignature},
		{"duplicate variable", []string{"x", "x"}, `{"type":"sym","name":"x"}`, errprop.ErrSignature},
		{"no rule", []string{"x"}, `{"type":"func","name":"floor","arg":{"type":"sym","name":"x"}}`, errprop.ErrDifferentiation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := request.Compile(&request.Request{Variables: tt.vars, Formula: json.RawMessage(tt.formula)})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.True(t, request.IsClientError(err))
		})
	}
}

func TestIsClientError_Internal(t *testing.T) {
	assert.False(t, request.IsClientError(errors.New("boom")))
	assert.False(t, request.IsClientError(errors.AssertionFailedf("unreachable")))
}

func TestRun_Single(t *testing.T) {
	req := cubicRequest(t, "")
	eng, err := request.Compile(req)
	require.NoError(t, err)

	resp, err := request.Run(context.Background(), eng, req, 6)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	res := resp.Results[0]
	assert.InDelta(t, 9.6, float64(res.Uncertainty), 1e-12)
	assert.InDelta(t, 9.0, float64(res.Value), 1e-12)
	assert.Contains(t, res.LaTeX, `&= \SI{9.600000}{}`)
	require.Len(t, res.Terms, 2)
	assert.Equal(t, "a", res.Terms[0].Var)
	assert.Equal(t, "b^3 + 1", res.Terms[0].Derivative)
	assert.Equal(t, map[string]string{"a": "b^3 + 1", "b": "3*a*b^2"}, resp.Derivatives)
}

func TestRun_FormatOptions(t *testing.T) {
	req := cubicRequest(t, `,"precision":2,"result_unit":"\\volt","quantity":"U"`)
	eng, err := request.Compile(req)
	require.NoError(t, err)

	resp, err := request.Run(context.Background(), eng, req, 6)
	require.NoError(t, err)
	latex := resp.Results[0].LaTeX
	assert.Contains(t, latex, `\Delta U &= `)
	assert.Contains(t, latex, `&= \SI{9.60}{\volt}`)
}

func TestRun_SeriesPreservesOrder(t *testing.T) {
	const n = 50
	series := make([]string, n)
	for i := range series {
		series[i] = fmt.Sprintf(`{"a":{"value":%d},"delta_a":{"value":0.1},"b":{"value":%d},"delta_b":{"value":0.01}}`, i, i%7)
	}
	body := `{"variables":["a","b"],"formula":` + cubicFormula + `,"series":[` + strings.Join(series, ",") + `]}`
	req, err := request.Decode(strings.NewReader(body))
	require.NoError(t, err)
	eng, err := request.Compile(req)
	require.NoError(t, err)

	resp, err := request.Run(context.Background(), eng, req, 6)
	require.NoError(t, err)
	require.Len(t, resp.Results, n)
	for i, m := range req.Sets() {
		want, err := eng.Uncertainty(m)
		require.NoError(t, err)
		assert.Equal(t, want, float64(resp.Results[i].Uncertainty), "set %d", i)
	}
}

func TestRun_SeriesFailsFast(t *testing.T) {
	body := `{"variables":["a","b"],"formula":` + cubicFormula + `,"series":[` +
		cubicMeasurements + `,{"a":{"value":1},"b":{"value":2},"delta_b":{"value":0.5}}]}`
	req, err := request.Decode(strings.NewReader(body))
	require.NoError(t, err)
	eng, err := request.Compile(req)
	require.NoError(t, err)

	resp, err := request.Run(context.Background(), eng, req, 6)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, errprop.ErrMissingMeasurement))
	var mm *errprop.MissingMeasurementError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "delta_a", mm.Name)
}

func TestRun_CancelledContext(t *testing.T) {
	req := cubicRequest(t, "")
	eng, err := request.Compile(req)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = request.Run(ctx, eng, req, 6)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNumber_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, 9.6} {
		b, err := json.Marshal(request.Number(f))
		require.NoError(t, err)

		var back request.Number
		require.NoError(t, json.Unmarshal(b, &back))
		if math.IsNaN(f) {
			assert.True(t, math.IsNaN(float64(back)))
			continue
		}
		assert.Equal(t, f, float64(back))
	}
}

func TestRun_DivisionByZeroIsCarried(t *testing.T) {
	body := `{"variables":["x"],"formula":{"type":"pow","base":{"type":"sym","name":"x"},"exp":{"type":"num","value":"-1"}},` +
		`"measurements":{"x":{"value":0},"delta_x":{"value":0.1}}}`
	req, err := request.Decode(strings.NewReader(body))
	require.NoError(t, err)
	eng, err := request.Compile(req)
	require.NoError(t, err)

	resp, err := request.Run(context.Background(), eng, req, 6)
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(resp.Results[0].Uncertainty), 1))

	_, err = json.Marshal(resp)
	assert.NoError(t, err)
}

func TestCacheKey_IgnoresWhitespace(t *testing.T) {
	a := &request.Request{Variables: []string{"x"}, Formula: json.RawMessage(`{"type": "sym", "name": "x"}`)}
	b := &request.Request{Variables: []string{"x"}, Formula: json.RawMessage(`{"type":"sym","name":"x"}`)}
	c := &request.Request{Variables: []string{"x", "y"}, Formula: json.RawMessage(`{"type":"sym","name":"x"}`)}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestSchema(t *testing.T) {
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(request.Schema()), &schema))
	tools, ok := schema["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, "propagate", tools[0].(map[string]interface{})["name"])
}
