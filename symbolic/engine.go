package symbolic

import "fmt"

// ============================================================
// Engine — the solver-facing adapter
// ============================================================

// Engine bundles parsing, calculus, simplification and rendering behind one
// value. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	opts ParseOptions
}

// EngineOption configures an Engine.
type EngineOption func(*ParseOptions)

// WithVariables restricts parsed input to the given symbol names.
func WithVariables(names ...string) EngineOption {
	return func(o *ParseOptions) { o.Variables = append([]string(nil), names...) }
}

// WithReserved rejects the given names in parsed input.
func WithReserved(names ...string) EngineOption {
	return func(o *ParseOptions) { o.Reserved = append([]string(nil), names...) }
}

// NewEngine returns an Engine. Without options any identifier parses as a
// variable.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// Parse reads text under the engine's variable and reserved-name rules.
func (e *Engine) Parse(text string) (Expr, error) {
	return Parse(text, e.opts)
}

// Differentiate returns d x/d sym, failing with ErrUndefined when the
// derivative divides by zero.
func (e *Engine) Differentiate(x Expr, sym string) (Expr, error) {
	d := Diff(x, sym)
	if err := checkDefined(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Integrate returns an antiderivative of x in sym. See Integrate.
func (e *Engine) Integrate(x Expr, sym string) (Expr, error) {
	return Integrate(x, sym)
}

// Simplify returns the normal form of x. See Simplify.
func (e *Engine) Simplify(x Expr) (Expr, error) {
	return Simplify(x)
}

// StructurallyEqual reports whether a and b share a normal form.
func (e *Engine) StructurallyEqual(a, b Expr) (bool, error) {
	return Equivalent(a, b)
}

// FreeSymbols returns the symbol names occurring in x.
func (e *Engine) FreeSymbols(x Expr) map[string]struct{} {
	return FreeSymbols(x)
}

// Exp returns e^x.
func (e *Engine) Exp(x Expr) Expr { return ExpOf(x) }

// Add returns a + b.
func (e *Engine) Add(a, b Expr) Expr { return AddOf(a, b) }

// Sub returns a - b.
func (e *Engine) Sub(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

// Mul returns a*b.
func (e *Engine) Mul(a, b Expr) Expr { return MulOf(a, b) }

// Quo returns a/b, failing with ErrDivisionByZero when b simplifies to zero.
func (e *Engine) Quo(a, b Expr) (Expr, error) {
	bs, err := Simplify(b)
	if err != nil {
		return nil, err
	}
	if isNumEqual(bs, 0) {
		return nil, fmt.Errorf("%w: (%s)/(%s)", ErrDivisionByZero, a.String(), b.String())
	}
	return MulOf(a, PowOf(bs, N(-1))), nil
}

// Render returns the LaTeX form of x.
func (e *Engine) Render(x Expr) string { return x.LaTeX() }

// RenderEquation returns the LaTeX form of lhs = rhs.
func (e *Engine) RenderEquation(lhs, rhs Expr) string { return Eq(lhs, rhs).LaTeX() }

// Plain returns the plain-text form of x.
func (e *Engine) Plain(x Expr) string { return x.String() }
