package symbolic_test

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/errprop/symbolic"
)

func TestToJSON_Num(t *testing.T) {
	s, err := symbolic.ToJSON(symbolic.N(5))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	assert.Equal(t, "num", m["type"])
	assert.Equal(t, "5", m["value"])
}

func TestFromJSON_RoundTrip(t *testing.T) {
	a, b := symbolic.S("a"), symbolic.S("b")
	orig := symbolic.AddOf(
		a,
		symbolic.MulOf(a, symbolic.PowOf(b, symbolic.N(3))),
		symbolic.SqrtOf(symbolic.SinOf(b)),
		symbolic.L(1.5, `\volt`),
	)
	s, err := symbolic.ToJSON(orig)
	require.NoError(t, err)
	back, err := symbolic.UnmarshalExpr([]byte(s))
	require.NoError(t, err)
	assert.True(t, orig.Equal(back), "want %s, got %s", orig, back)
}

func TestFromJSON_NumericValue(t *testing.T) {
	e, err := symbolic.UnmarshalExpr([]byte(`{"type":"num","value":0.1}`))
	require.NoError(t, err)
	assert.Equal(t, "1/10", e.String())
}

func TestFromJSON_SqrtAlias(t *testing.T) {
	e, err := symbolic.UnmarshalExpr([]byte(`{"type":"func","name":"sqrt","arg":{"type":"sym","name":"x"}}`))
	require.NoError(t, err)
	assert.True(t, e.Equal(symbolic.SqrtOf(symbolic.S("x"))))
}

func TestFromJSON_Errors(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"missing type":  `{"name":"x"}`,
		"unknown type":  `{"type":"matrix"}`,
		"empty add":     `{"type":"add","terms":[]}`,
		"bad num":       `{"type":"num","value":"abc"}`,
		"bad lit unit":  `{"type":"lit","value":1,"unit":3}`,
		"nested failure": `{"type":"mul","factors":[{"type":"sym"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := symbolic.UnmarshalExpr([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, symbolic.ErrDecode), "got %v", err)
		})
	}
}
