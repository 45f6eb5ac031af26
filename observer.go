package errprop

import (
	"go.uber.org/zap"

	"github.com/njchilds90/errprop/internal/logger"
)

// Observer is notified at fixed points of an engine's life: once after
// construction and once after every successful evaluation. Implementations
// must not mutate their arguments and must be safe for concurrent use when the
// engine is shared.
type Observer interface {
	Differentiated(vars []string, partials []Partial)
	Evaluated(ev *Evaluation)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnDifferentiated func(vars []string, partials []Partial)
	OnEvaluated      func(ev *Evaluation)
}

func (o ObserverFuncs) Differentiated(vars []string, partials []Partial) {
	if o.OnDifferentiated != nil {
		o.OnDifferentiated(vars, partials)
	}
}

func (o ObserverFuncs) Evaluated(ev *Evaluation) {
	if o.OnEvaluated != nil {
		o.OnEvaluated(ev)
	}
}

// logObserver writes both events at debug level.
type logObserver struct {
	log *zap.SugaredLogger
}

func newLogObserver(l *zap.SugaredLogger) *logObserver {
	if l == nil {
		l = logger.ComponentLogger("errprop")
	}
	return &logObserver{log: l}
}

func (o *logObserver) Differentiated(vars []string, partials []Partial) {
	derivs := make(map[string]string, len(partials))
	for _, p := range partials {
		derivs[p.Var] = p.Expr.String()
	}
	o.log.Debugw("formula differentiated",
		logger.FieldVariables, vars,
		"derivatives", derivs)
}

func (o *logObserver) Evaluated(ev *Evaluation) {
	contributions := make(map[string]float64, len(ev.Terms))
	for _, t := range ev.Terms {
		contributions[t.Var] = t.Contribution
	}
	o.log.Debugw("measurement set evaluated",
		logger.FieldCount, len(ev.Terms),
		"contributions", contributions,
		logger.FieldTotal, ev.Total)
}
