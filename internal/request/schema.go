package request

import "encoding/json"

// Schema describes the propagate operation for client registration.
func Schema() string {
	tools := []map[string]interface{}{
		ts("propagate",
			"Propagate measurement uncertainty through a formula with Δf = Σ Δxᵢ·|∂f/∂xᵢ| and render the derivation as LaTeX",
			[]string{"variables", "formula"},
			map[string]string{
				"variables":    "array",
				"formula":      "object",
				"measurements": "object",
				"series":       "array",
				"precision":    "integer",
				"result_unit":  "string",
				"quantity":     "string",
			}),
	}
	schema := map[string]interface{}{
		"tools":            tools,
		"expression_types": []string{"num", "sym", "lit", "add", "mul", "pow", "func"},
		"functions": []string{
			"sin", "cos", "tan", "exp", "ln", "sqrt", "abs",
			"asin", "acos", "atan", "sinh", "cosh", "tanh",
		},
	}
	b, _ := json.MarshalIndent(schema, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
