// Package request holds the JSON propagation request shared by the CLI and the
// HTTP server: decoding, engine compilation and evaluation of one or more
// measurement sets.
package request

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/njchilds90/errprop"
	"github.com/njchilds90/errprop/symbolic"
)

// ErrBadRequest marks malformed or inconsistent requests.
var ErrBadRequest = errors.New("bad request")

// Request asks for the propagated uncertainty of one formula at one
// measurement set ("measurements") or at several ("series"), never both.
type Request struct {
	Variables    []string               `json:"variables"`
	Formula      json.RawMessage        `json:"formula"`
	Measurements errprop.Measurements   `json:"measurements,omitempty"`
	Series       []errprop.Measurements `json:"series,omitempty"`
	Precision    *int                   `json:"precision,omitempty"`
	ResultUnit   string                 `json:"result_unit,omitempty"`
	Quantity     string                 `json:"quantity,omitempty"`
}

// Decode reads exactly one JSON request from r. Unknown fields and trailing
// data are rejected.
func Decode(r io.Reader) (*Request, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid JSON"), ErrBadRequest)
	}
	if dec.More() {
		return nil, errors.Mark(errors.New("invalid JSON: trailing data"), ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks the request shape. Variable names and measurement keys are
// checked later by the engine.
func (r *Request) Validate() error {
	switch {
	case len(bytes.TrimSpace(r.Formula)) == 0:
		return badRequestf("formula is required")
	case r.Measurements != nil && r.Series != nil:
		return badRequestf("measurements and series are mutually exclusive")
	case r.Measurements == nil && len(r.Series) == 0:
		return badRequestf("one of measurements or series is required")
	case r.Precision != nil && *r.Precision < 0:
		return badRequestf("precision must be >= 0, got %d", *r.Precision)
	}
	return nil
}

// Sets returns the measurement sets to evaluate, in request order.
func (r *Request) Sets() []errprop.Measurements {
	if r.Measurements != nil {
		return []errprop.Measurements{r.Measurements}
	}
	return r.Series
}

// CacheKey identifies the engine a request compiles to: its variables and its
// compacted formula.
func (r *Request) CacheKey() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, r.Formula); err != nil {
		buf.Reset()
		buf.Write(r.Formula)
	}
	return strings.Join(r.Variables, ",") + "|" + buf.String()
}

// Compile decodes the formula and differentiates it.
func Compile(r *Request, opts ...errprop.Option) (*errprop.Engine, error) {
	body, err := symbolic.UnmarshalExpr(r.Formula)
	if err != nil {
		return nil, errors.Wrap(err, "decode formula")
	}
	f, err := errprop.DefineExpr(r.Variables, body)
	if err != nil {
		return nil, err
	}
	return errprop.NewEngine(f, opts...)
}

// IsClientError reports whether err was caused by the request rather than by
// the service.
func IsClientError(err error) bool {
	return errors.IsAny(err,
		ErrBadRequest,
		symbolic.ErrDecode,
		errprop.ErrSignature,
		errprop.ErrDifferentiation,
		errprop.ErrMissingMeasurement)
}

func badRequestf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrBadRequest)
}
