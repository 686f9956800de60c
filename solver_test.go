package exactode_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/exactode"
	"github.com/njchilds90/exactode/symbolic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSolver(t *testing.T, opts ...exactode.Option) *exactode.Solver {
	t.Helper()
	return exactode.New(append([]exactode.Option{exactode.WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

func titles(steps []exactode.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Title
	}
	return out
}

var exactTrail = []string{
	"1. Verificar Exactitud",
	"2. Integrar M respecto a x",
	"3. Encontrar g'(y)",
	"4. Obtener g(y)",
	"5. Solución General",
}

var factorTrail = []string{
	"1. Verificar Exactitud",
	"No es Exacta",
	"1.1 Factor Integrante Hallado",
	"1.2 Nueva Ecuación Exacta",
	"2. Integrar M respecto a x",
	"3. Encontrar g'(y)",
	"4. Obtener g(y)",
	"5. Solución General",
}

// assertPotential checks F_x = M and F_y = N for the exact pair of res.
func assertPotential(t *testing.T, res exactode.Result) {
	t.Helper()
	require.NotNil(t, res.Potential)
	okX, err := symbolic.Equivalent(symbolic.Diff(res.Potential, "x"), res.ExactM)
	require.NoError(t, err)
	okY, err := symbolic.Equivalent(symbolic.Diff(res.Potential, "y"), res.ExactN)
	require.NoError(t, err)
	assert.True(t, okX, "dF/dx = %s, M = %s", symbolic.Diff(res.Potential, "x"), res.ExactM)
	assert.True(t, okY, "dF/dy = %s, N = %s", symbolic.Diff(res.Potential, "y"), res.ExactN)
}

// ============================================================
// Exact equations
// ============================================================

func TestSolve_Exact(t *testing.T) {
	tests := []struct {
		name  string
		m, n  string
		plain string
		latex string
	}{
		{
			name:  "trig and exponential",
			m:     "y*cos(x) + 2*x*exp(y)",
			n:     "sin(x) + x^2*exp(y) - 1",
			plain: "x^2*exp(y) + y*sin(x) - y = C",
			latex: `x^{2} e^{y} + y \sin\left(x\right) - y = C`,
		},
		{name: "product", m: "y", n: "x", plain: "x*y = C"},
		{name: "polynomial", m: "2*x*y", n: "x^2 - y^2", plain: "x^2*y - y^3/3 = C"},
		{name: "halved squares", m: "x", n: "y", plain: "x^2/2 + y^2/2 = C", latex: `\frac{x^{2}}{2} + \frac{y^{2}}{2} = C`},
		{name: "zero N", m: "x", n: "0", plain: "x^2/2 = C"},
		{name: "logarithm", m: "ln(x)", n: "y", plain: "x*ln(x) + y^2/2 - x = C"},
		{name: "pythagorean", m: "sin(x)^2 + cos(x)^2", n: "0", plain: "x = C"},
		{name: "radial", m: "x/(x^2+y^2)", n: "y/(x^2+y^2)", plain: "ln(x^2 + y^2)/2 = C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newSolver(t).Solve(tt.m, tt.n)
			require.True(t, res.Solved(), "trail: %v", res.Steps)
			assert.Equal(t, tt.plain, res.SolutionText)
			if tt.latex != "" {
				assert.Equal(t, tt.latex, res.Solution)
			}
			assert.Equal(t, exactTrail, titles(res.Steps))
			assert.Equal(t, res.Solution, res.Steps[len(res.Steps)-1].Formula)
			assert.Nil(t, res.Factor)
			assert.Empty(t, res.FactorVar)
			assertPotential(t, res)
		})
	}
}

func TestSolve_CheckFormula(t *testing.T) {
	res := newSolver(t).Solve("y", "x")
	require.NotEmpty(t, res.Steps)
	assert.Equal(t, `\frac{\partial M}{\partial y} = 1 \quad \text{y} \quad \frac{\partial N}{\partial x} = 1`, res.Steps[0].Formula)
}

// ============================================================
// Integrating factors
// ============================================================

func TestSolve_IntegratingFactor(t *testing.T) {
	tests := []struct {
		name      string
		m, n      string
		factorVar string
		mu        string
	}{
		{name: "mu of x polynomial", m: "3*x*y + y^2", n: "x^2 + x*y", factorVar: "x", mu: "x"},
		{name: "mu of x exponential", m: "x + y", n: "1", factorVar: "x", mu: "exp(x)"},
		{name: "mu of y", m: "y", n: "2*x - y*exp(y)", factorVar: "y", mu: "y"},
		{name: "x wins when both apply", m: "y", n: "-x", factorVar: "x", mu: "1/x^2"},
		{name: "zero N falls through to y", m: "y", n: "0", factorVar: "y", mu: "1/y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newSolver(t).Solve(tt.m, tt.n)
			require.True(t, res.Solved(), "trail: %v", titles(res.Steps))
			assert.Equal(t, factorTrail, titles(res.Steps))
			assert.Equal(t, tt.factorVar, res.FactorVar)
			require.NotNil(t, res.Factor)
			assert.Equal(t, tt.mu, res.Factor.String())
			assertPotential(t, res)
		})
	}
}

func TestSolve_FactorSolutions(t *testing.T) {
	res := newSolver(t).Solve("y", "-x")
	assert.Equal(t, "-y/x = C", res.SolutionText)

	res = newSolver(t).Solve("y", "0")
	assert.Equal(t, "x = C", res.SolutionText)

	res = newSolver(t).Solve("3*x*y + y^2", "x^2 + x*y")
	ok, err := symbolic.Equivalent(res.Potential, symbolic.MustParse("x^3*y + x^2*y^2/2"))
	require.NoError(t, err)
	assert.True(t, ok, "F = %s", res.Potential)
}

func TestSolve_FactorNarration(t *testing.T) {
	res := newSolver(t).Solve("x + y", "1")
	require.Len(t, res.Steps, len(factorTrail))
	assert.Contains(t, res.Steps[2].Text, "depende solo de x")
	assert.Equal(t, `\mu = e^{x}`, res.Steps[2].Formula)

	res = newSolver(t).Solve("y", "2*x - y*exp(y)")
	require.Len(t, res.Steps, len(factorTrail))
	assert.Contains(t, res.Steps[2].Text, "depende solo de y")
}

// spyEngine records every divisor handed to Quo.
type spyEngine struct {
	*symbolic.Engine
	mu   sync.Mutex
	dens []string
}

func (s *spyEngine) Quo(a, b symbolic.Expr) (symbolic.Expr, error) {
	s.mu.Lock()
	s.dens = append(s.dens, b.String())
	s.mu.Unlock()
	return s.Engine.Quo(a, b)
}

func TestSolve_YCandidateSkippedWhenXAccepted(t *testing.T) {
	spy := &spyEngine{Engine: symbolic.NewEngine(symbolic.WithVariables("x", "y"), symbolic.WithReserved("C"))}
	res := newSolver(t, exactode.WithEngine(spy)).Solve("y", "-x")
	require.True(t, res.Solved())
	assert.Equal(t, []string{"-x"}, spy.dens)
}

func TestSolve_NoFactor(t *testing.T) {
	res := newSolver(t).Solve("x*y", "x + y")
	assert.False(t, res.Solved())
	assert.Empty(t, res.SolutionText)
	assert.Nil(t, res.Potential)
	assert.Equal(t, []string{"1. Verificar Exactitud", "No es Exacta", "Error"}, titles(res.Steps))
	last := res.Steps[len(res.Steps)-1]
	assert.Equal(t, `\text{Método no aplicable}`, last.Formula)
}

func TestSolve_FactorWithoutClosedForm(t *testing.T) {
	res := newSolver(t).Solve("y*exp(x^2)", "1")
	assert.False(t, res.Solved())
	assert.Equal(t, []string{"1. Verificar Exactitud", "No es Exacta", "Error"}, titles(res.Steps))
}

// ============================================================
// Failures
// ============================================================

func TestSolve_MathErrors(t *testing.T) {
	tests := []struct {
		name   string
		m, n   string
		trail  []string
		reason string
	}{
		{"malformed M", "y +", "x", []string{"Error Matemático"}, "M: "},
		{"malformed N", "y", "(x", []string{"Error Matemático"}, "N: "},
		{"reserved constant", "C*x", "y", []string{"Error Matemático"}, "reserved"},
		{"unknown symbol", "z", "x", []string{"Error Matemático"}, "unknown symbol"},
		{"integral without closed form", "exp(x^2)", "0", []string{"1. Verificar Exactitud", "Error Matemático"}, "no closed-form"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newSolver(t).Solve(tt.m, tt.n)
			assert.False(t, res.Solved())
			assert.Equal(t, tt.trail, titles(res.Steps))
			last := res.Steps[len(res.Steps)-1]
			assert.True(t, strings.HasPrefix(last.Text, "No se pudo procesar: "), last.Text)
			assert.Contains(t, last.Text, tt.reason)
			assert.Empty(t, last.Formula)
		})
	}
}

// lyingEngine reports every pair as exact.
type lyingEngine struct{ *symbolic.Engine }

func (lyingEngine) StructurallyEqual(a, b symbolic.Expr) (bool, error) { return true, nil }

func TestSolve_GPrimeDependsOnX(t *testing.T) {
	eng := lyingEngine{symbolic.NewEngine(symbolic.WithVariables("x", "y"))}
	res := newSolver(t, exactode.WithEngine(eng)).Solve("y", "2*x")
	assert.False(t, res.Solved())
	assert.Equal(t, []string{
		"1. Verificar Exactitud",
		"2. Integrar M respecto a x",
		"3. Encontrar g'(y)",
		"Error Matemático",
	}, titles(res.Steps))
	assert.Contains(t, res.Steps[3].Text, exactode.ErrNotExact.Error())
}

// panickingEngine blows up on integration.
type panickingEngine struct{ *symbolic.Engine }

func (panickingEngine) Integrate(symbolic.Expr, string) (symbolic.Expr, error) {
	panic("integrator exploded")
}

func TestSolve_RecoversFromPanic(t *testing.T) {
	eng := panickingEngine{symbolic.NewEngine(symbolic.WithVariables("x", "y"))}
	var res exactode.Result
	require.NotPanics(t, func() {
		res = newSolver(t, exactode.WithEngine(eng)).Solve("y", "x")
	})
	assert.False(t, res.Solved())
	require.NotEmpty(t, res.Steps)
	last := res.Steps[len(res.Steps)-1]
	assert.Equal(t, exactode.TitleMathError, last.Title)
	assert.Contains(t, last.Text, "integrator exploded")
}

// ============================================================
// Properties
// ============================================================

var corpus = [][2]string{
	{"y*cos(x) + 2*x*exp(y)", "sin(x) + x^2*exp(y) - 1"},
	{"y", "x"},
	{"2*x*y", "x^2 - y^2"},
	{"3*x*y + y^2", "x^2 + x*y"},
	{"x + y", "1"},
	{"y", "2*x - y*exp(y)"},
	{"y", "-x"},
	{"x*y", "x + y"},
	{"y +", "x"},
}

func TestSolve_Sanitized(t *testing.T) {
	s := newSolver(t)
	plain := s.Solve("y*cos(x) + 2*x*exp(y)", "sin(x) + x^2*exp(y) - 1")
	qualified := s.Solve("y*math.cos(x) + 2*x*Math.exp(y)", "math.sin(x) + x^2*math.exp(y) - 1")
	if diff := cmp.Diff(plain.Steps, qualified.Steps); diff != "" {
		t.Errorf("qualified names changed the trail (-plain +qualified):\n%s", diff)
	}
	assert.Equal(t, plain.SolutionText, qualified.SolutionText)
}

func TestSolve_Deterministic(t *testing.T) {
	s := newSolver(t)
	for _, p := range corpus {
		first := s.Solve(p[0], p[1])
		second := s.Solve(p[0], p[1])
		if diff := cmp.Diff(first.Steps, second.Steps); diff != "" {
			t.Errorf("M=%s N=%s: repeated solve differs:\n%s", p[0], p[1], diff)
		}
		assert.Equal(t, first.Solution, second.Solution)
	}
}

func TestSolve_Concurrent(t *testing.T) {
	s := newSolver(t)
	want := make([]exactode.Result, len(corpus))
	for i, p := range corpus {
		want[i] = s.Solve(p[0], p[1])
	}

	got := make([]exactode.Result, len(corpus)*4)
	var g errgroup.Group
	for i := range got {
		p := corpus[i%len(corpus)]
		g.Go(func() error {
			got[i] = s.Solve(p[0], p[1])
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, res := range got {
		w := want[i%len(corpus)]
		if diff := cmp.Diff(w.Steps, res.Steps); diff != "" {
			t.Errorf("job %d differs:\n%s", i, diff)
		}
	}
}

func TestSolve_PackageLevel(t *testing.T) {
	res := exactode.Solve("y", "x")
	assert.Equal(t, "x*y = C", res.SolutionText)
	assert.Equal(t, "x y = C", res.Solution)
}

func TestWithLogger_NilIgnored(t *testing.T) {
	s := exactode.New(exactode.WithLogger(nil))
	assert.NotPanics(t, func() { s.Solve("y", "x") })
}

func ExampleSolve() {
	res := exactode.Solve("2*x*y", "x^2 - y^2")
	fmt.Println(res.SolutionText)
	for _, s := range res.Steps {
		fmt.Println(s.Title)
	}
	// Output:
	// x^2*y - y^3/3 = C
	// 1. Verificar Exactitud
	// 2. Integrar M respecto a x
	// 3. Encontrar g'(y)
	// 4. Obtener g(y)
	// 5. Solución General
}
