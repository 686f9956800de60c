// Package exactode solves first-order ODEs of the form M(x,y)dx + N(x,y)dy = 0
// by the method of exact equations, searching for an integrating factor in
// x or in y when the equation is not exact.
//
// Every solve returns a Result with the implicit solution F(x,y) = C (when
// one was found) and the ordered derivation trail, narrated in Spanish with
// LaTeX formulas:
//
//	res := exactode.Solve("y*cos(x) + 2*x*exp(y)", "sin(x) + x^2*exp(y) - 1")
//	fmt.Println(res.SolutionText) // x^2*exp(y) + y*sin(x) - y = C
//
// Solve never returns an error. Failures (malformed input, no integrating
// factor, integrals without a closed form) become the last Step of the
// trail and leave Solution empty.
package exactode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/exactode/symbolic"
)

// Reserved symbol names.
const (
	SymX = "x"
	SymY = "y"
	SymC = "C"
)

// Step is one narrated unit of the derivation.
type Step struct {
	Title   string `json:"title" yaml:"title"`
	Text    string `json:"text" yaml:"text"`
	Formula string `json:"formula" yaml:"formula"`
}

// Result is the outcome of one solve.
type Result struct {
	// Solution is the LaTeX rendering of F(x,y) = C, empty when unsolved.
	Solution string `json:"solution,omitempty"`
	// SolutionText is the plain-text rendering of the same equation.
	SolutionText string `json:"solution_text,omitempty"`
	Steps        []Step `json:"steps"`

	// Potential is F(x,y).
	Potential symbolic.Expr `json:"-"`
	// Factor is the integrating factor μ when one was applied.
	Factor symbolic.Expr `json:"-"`
	// FactorVar is "x" or "y" when Factor is set.
	FactorVar string `json:"factor_var,omitempty"`
	// ExactM and ExactN are the exact-form coefficients used to rebuild F.
	ExactM symbolic.Expr `json:"-"`
	ExactN symbolic.Expr `json:"-"`
}

// Solved reports whether a solution was found.
func (r Result) Solved() bool { return r.Solution != "" }

// Engine is the symbolic algebra the solver drives. *symbolic.Engine
// implements it.
type Engine interface {
	Parse(text string) (symbolic.Expr, error)
	Differentiate(e symbolic.Expr, sym string) (symbolic.Expr, error)
	Integrate(e symbolic.Expr, sym string) (symbolic.Expr, error)
	Simplify(e symbolic.Expr) (symbolic.Expr, error)
	StructurallyEqual(a, b symbolic.Expr) (bool, error)
	FreeSymbols(e symbolic.Expr) map[string]struct{}
	Exp(e symbolic.Expr) symbolic.Expr
	Add(a, b symbolic.Expr) symbolic.Expr
	Sub(a, b symbolic.Expr) symbolic.Expr
	Mul(a, b symbolic.Expr) symbolic.Expr
	Quo(a, b symbolic.Expr) (symbolic.Expr, error)
	Render(e symbolic.Expr) string
	RenderEquation(lhs, rhs symbolic.Expr) string
	Plain(e symbolic.Expr) string
}

// Solver runs the exact-equation method. It keeps no state between calls.
type Solver struct {
	engine Engine
	logger *zap.Logger
	c      symbolic.Expr
}

// Option configures a Solver.
type Option func(*Solver)

// WithEngine replaces the default symbolic engine.
func WithEngine(e Engine) Option {
	return func(s *Solver) { s.engine = e }
}

// WithLogger sets the logger used for stage tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Solver. By default it parses only x and y and rejects C.
func New(opts ...Option) *Solver {
	s := &Solver{logger: zap.NewNop(), c: symbolic.S(SymC)}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = symbolic.NewEngine(
			symbolic.WithVariables(SymX, SymY),
			symbolic.WithReserved(SymC),
		)
	}
	return s
}

// Solve runs the default Solver.
func Solve(mText, nText string) Result {
	return New().Solve(mText, nText)
}

// Solve solves M dx + N dy = 0 given M and N as text. It never panics;
// failures are reported as the last Step with an empty Solution.
func (s *Solver) Solve(mText, nText string) (res Result) {
	log := newStepLog()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("engine panic", zap.Any("panic", r), zap.String("m", mText), zap.String("n", nText))
			log.mathError(fmt.Errorf("%v", r))
			res = Result{Steps: log.steps()}
		}
	}()

	out, err := s.run(mText, nText, log)
	if err != nil {
		s.logger.Info("solve failed", zap.Error(err), zap.String("m", mText), zap.String("n", nText))
		log.mathError(err)
		return Result{Steps: log.steps()}
	}
	out.Steps = log.steps()
	return out
}

func (s *Solver) run(mText, nText string, log *stepLog) (Result, error) {
	m, err := s.engine.Parse(Sanitize(mText))
	if err != nil {
		return Result{}, fmt.Errorf("M: %w", err)
	}
	n, err := s.engine.Parse(Sanitize(nText))
	if err != nil {
		return Result{}, fmt.Errorf("N: %w", err)
	}

	ex, err := s.checkExactness(m, n, log)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if !ex.exact {
		log.add(titleNotExact, textNotExact, formulaNotExact)
		f := s.findFactor(m, n, ex.my, ex.nx)
		if !f.found {
			s.logger.Info("no integrating factor", zap.String("m", s.engine.Plain(m)), zap.String("n", s.engine.Plain(n)))
			log.add(titleNoFactor, textNoFactor, formulaNoFactor)
			return Result{}, nil
		}
		if m, n, err = s.applyFactor(m, n, f, log); err != nil {
			return Result{}, err
		}
		res.Factor, res.FactorVar = f.mu, f.variable
	}

	pot, err := s.reconstruct(m, n, log)
	if err != nil {
		return Result{}, err
	}
	res.Solution = s.engine.RenderEquation(pot.f, s.c)
	res.SolutionText = s.engine.Plain(pot.f) + " = " + SymC
	res.Potential = pot.f
	res.ExactM, res.ExactN = m, n
	s.logger.Debug("solved", zap.String("solution", res.SolutionText))
	return res, nil
}

type exactness struct {
	exact  bool
	my, nx symbolic.Expr
}

func (s *Solver) checkExactness(m, n symbolic.Expr, log *stepLog) (exactness, error) {
	my, err := s.engine.Differentiate(m, SymY)
	if err != nil {
		return exactness{}, err
	}
	nx, err := s.engine.Differentiate(n, SymX)
	if err != nil {
		return exactness{}, err
	}
	log.add(titleCheck, textCheck, fmt.Sprintf(formulaCheck, s.engine.Render(my), s.engine.Render(nx)))

	eq, err := s.engine.StructurallyEqual(my, nx)
	if err != nil {
		return exactness{}, err
	}
	s.logger.Debug("exactness",
		zap.String("dM/dy", s.engine.Plain(my)),
		zap.String("dN/dx", s.engine.Plain(nx)),
		zap.Bool("exact", eq))
	return exactness{exact: eq, my: my, nx: nx}, nil
}
