package errprop

// Aggregate applies the linear worst-case law Σ Δxᵢ·|∂f/∂xᵢ| to terms, summing
// in slice order. Root-sum-square combination is deliberately not offered.
func Aggregate(terms []Term) float64 {
	total := 0.0
	for _, t := range terms {
		total += t.Contribution
	}
	return total
}

// Uncertainty returns only the propagated uncertainty of f at m.
func (e *Engine) Uncertainty(m Measurements) (float64, error) {
	ev, err := e.Evaluate(m)
	if err != nil {
		return 0, err
	}
	return ev.Total, nil
}
