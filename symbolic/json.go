package symbolic

import (
	"encoding/json"
	"math/big"

	"github.com/cockroachdb/errors"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// MarshalExpr returns the wire form of e as a generic map.
func MarshalExpr(e Expr) map[string]interface{} { return e.toJSON() }

// UnmarshalExpr decodes a JSON document into an expression.
func UnmarshalExpr(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "symbolic: decode expression"), ErrDecode)
	}
	return FromJSON(m)
}

func decodeErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrDecode)
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, decodeErrorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, decodeErrorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, decodeErrorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, decodeErrorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, decodeErrorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subObjArray := func(field string) ([]map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, decodeErrorf("%s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, decodeErrorf("%s: %q must be an array", typ, field)
		}
		if len(raw) == 0 {
			return nil, decodeErrorf("%s: %q must not be empty", typ, field)
		}
		out := make([]map[string]interface{}, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, decodeErrorf("%s: %q[%d] must be an object", typ, field, i)
			}
			out[i] = m
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", decodeErrorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", decodeErrorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	subList := func(field string) ([]Expr, error) {
		objs, err := subObjArray(field)
		if err != nil {
			return nil, err
		}
		out := make([]Expr, len(objs))
		for i, o := range objs {
			e, err := FromJSON(o)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: %s[%d]", typ, field, i)
			}
			out[i] = e
		}
		return out, nil
	}

	switch typ {
	case "num":
		valAny, ok := data["value"]
		if !ok {
			return nil, decodeErrorf("num: missing 'value'")
		}
		switch val := valAny.(type) {
		case string:
			r := new(big.Rat)
			if _, ok := r.SetString(val); !ok {
				return nil, decodeErrorf("invalid num value: %s", val)
			}
			return &Num{val: r}, nil
		case float64:
			r, ok := new(big.Rat).SetString(FormatFloat(val))
			if !ok {
				return nil, decodeErrorf("invalid num value: %v", val)
			}
			return &Num{val: r}, nil
		}
		return nil, decodeErrorf("num: 'value' must be a string or a number")

	case "lit":
		valAny, ok := data["value"]
		if !ok {
			return nil, decodeErrorf("lit: missing 'value'")
		}
		val, ok := valAny.(float64)
		if !ok {
			return nil, decodeErrorf("lit: 'value' must be a number")
		}
		unit := ""
		if u, ok := data["unit"]; ok {
			if unit, ok = u.(string); !ok {
				return nil, decodeErrorf("lit: 'unit' must be a string")
			}
		}
		return L(val, unit), nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add":
		terms, err := subList("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subList("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		baseM, err := subObj("base")
		if err != nil {
			return nil, err
		}
		expM, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		base, err := FromJSON(baseM)
		if err != nil {
			return nil, errors.Wrap(err, "pow: base")
		}
		exp, err := FromJSON(expM)
		if err != nil {
			return nil, errors.Wrap(err, "pow: exp")
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		argM, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		arg, err := FromJSON(argM)
		if err != nil {
			return nil, errors.Wrap(err, "func: arg")
		}
		if name == "sqrt" {
			return SqrtOf(arg), nil
		}
		return Call(name, arg), nil
	}
	return nil, decodeErrorf("unknown expression type: %s", typ)
}
