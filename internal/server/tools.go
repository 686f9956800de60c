package server

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/njchilds90/exactode"
	"github.com/njchilds90/exactode/internal/render"
	"github.com/njchilds90/exactode/symbolic"
)

// ============================================================
// Tool interface
// ============================================================

// ToolRequest names a tool and its parameters. Expression parameters are
// either infix strings or expression trees as produced by symbolic.ToJSON.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Toolbox executes tool calls against a solver and a free-variable engine.
type Toolbox struct {
	solver *exactode.Solver
	engine *symbolic.Engine
}

// NewToolbox returns a Toolbox. Tool expressions may use any variable name.
func NewToolbox(solver *exactode.Solver) *Toolbox {
	return &Toolbox{solver: solver, engine: symbolic.NewEngine()}
}

func (tb *Toolbox) Handle(req ToolRequest) ToolResponse {
	getExpr := func(key string) (symbolic.Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return tb.engine.Parse(exactode.Sanitize(val))
		case map[string]interface{}:
			return symbolic.FromJSON(val)
		}
		return nil, fmt.Errorf("param %s must be a string or an expression object", key)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("param %s must be a non-empty string", key)
		}
		return s, nil
	}
	// getText accepts an expression parameter and returns its infix text.
	getText := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return val, nil
		case map[string]interface{}:
			e, err := symbolic.FromJSON(val)
			if err != nil {
				return "", err
			}
			return e.String(), nil
		}
		return "", fmt.Errorf("param %s must be a string or an expression object", key)
	}
	respond := func(e symbolic.Expr) ToolResponse {
		return ToolResponse{Result: symbolic.ToJSONMap(e), LaTeX: e.LaTeX(), String: e.String()}
	}
	fail := func(err error) ToolResponse {
		return ToolResponse{Error: err.Error()}
	}

	switch req.Tool {
	case "solve_exact_ode":
		m, err := getText("m")
		if err != nil {
			return fail(err)
		}
		n, err := getText("n")
		if err != nil {
			return fail(err)
		}
		res := tb.solver.Solve(m, n)
		resp := ToolResponse{
			Result: render.NewDocument("", m, n, res),
			LaTeX:  res.Solution,
			String: res.SolutionText,
		}
		if !res.Solved() && len(res.Steps) > 0 {
			resp.Error = res.Steps[len(res.Steps)-1].Text
		}
		return resp

	case "check_exactness":
		m, err := getExpr("m")
		if err != nil {
			return fail(err)
		}
		n, err := getExpr("n")
		if err != nil {
			return fail(err)
		}
		my, err := tb.engine.Differentiate(m, exactode.SymY)
		if err != nil {
			return fail(err)
		}
		nx, err := tb.engine.Differentiate(n, exactode.SymX)
		if err != nil {
			return fail(err)
		}
		exact, err := tb.engine.StructurallyEqual(my, nx)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{
				"exact": exact,
				"dM_dy": my.String(),
				"dN_dx": nx.String(),
			},
			LaTeX:  fmt.Sprintf(`\frac{\partial M}{\partial y} = %s, \quad \frac{\partial N}{\partial x} = %s`, my.LaTeX(), nx.LaTeX()),
			String: fmt.Sprintf("exact: %v", exact),
		}

	case "diff":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var")
		if err != nil {
			return fail(err)
		}
		d, err := tb.engine.Differentiate(e, v)
		if err != nil {
			return fail(err)
		}
		return respond(d)

	case "integrate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var")
		if err != nil {
			return fail(err)
		}
		r, err := tb.engine.Integrate(e, v)
		if err != nil {
			return fail(err)
		}
		return respond(r)

	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		r, err := tb.engine.Simplify(e)
		if err != nil {
			return fail(err)
		}
		return respond(r)

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{LaTeX: e.LaTeX(), String: e.String()}

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		names := make([]string, 0)
		for s := range tb.engine.FreeSymbols(e) {
			names = append(names, s)
		}
		sort.Strings(names)
		return ToolResponse{Result: names}

	case "mcp_spec":
		return ToolResponse{Result: ToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// Tool schema
// ============================================================

// ToolSpec returns the JSON tool schema for agent registration.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("solve_exact_ode", "Solve M dx + N dy = 0 by exact equations, searching for an integrating factor in x or y. Returns the step trail in Spanish with LaTeX.", []string{"m", "n"}, map[string]string{"m": "string", "n": "string"}),
		ts("check_exactness", "Compare ∂M/∂y with ∂N/∂x", []string{"m", "n"}, map[string]string{"m": "string", "n": "string"}),
		ts("diff", "First derivative d/dvar", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string"}),
		ts("integrate", "Symbolic integration (rule-based)", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string"}),
		ts("simplify", "Rational normal form with trig identities", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
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
