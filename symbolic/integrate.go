package symbolic

import (
	"fmt"
	"math/big"
)

// ============================================================
// Symbolic Integration
// ============================================================

// maxIntegrateDepth bounds recursion through by-parts, substitution and
// expansion retries.
const maxIntegrateDepth = 12

// substVar is the placeholder used during u-substitution. The parser never
// produces it.
const substVar = "_u"

// Integrate returns an antiderivative of e with respect to varName, without
// an integration constant. Logarithms are taken without absolute value.
// When the rules fail, the integrand is brought to normal form and tried
// once more. Integrals outside the rule set fail with ErrNoClosedForm.
func Integrate(e Expr, varName string) (Expr, error) {
	base := e.Simplify()
	res, ok := integrate(base, varName, 0)
	if !ok {
		// Identities such as sin^2 + cos^2 only fold under full simplification.
		if simp, err := Simplify(base); err == nil && simp.String() != base.String() {
			res, ok = integrate(simp, varName, 0)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s d%s", ErrNoClosedForm, e.String(), varName)
	}
	return res, nil
}

func integrate(e Expr, v string, depth int) (Expr, bool) {
	if depth > maxIntegrateDepth {
		return nil, false
	}
	if !dependsOn(e, v) {
		return MulOf(e, S(v)), true
	}
	if a, ok := e.(*Add); ok {
		parts := make([]Expr, 0, len(a.terms))
		for _, t := range a.terms {
			r, ok := integrate(t, v, depth+1)
			if !ok {
				return integrateRational(e, v)
			}
			parts = append(parts, r)
		}
		return AddOf(parts...), true
	}
	if r, ok := integrateTerm(e, v, depth); ok {
		return r, true
	}
	if ex := Expand(e); ex.String() != e.String() {
		if r, ok := integrate(ex, v, depth+1); ok {
			return r, true
		}
	}
	return integrateRational(e, v)
}

// integrateTerm pulls out the factors independent of v and integrates the
// rest.
func integrateTerm(e Expr, v string, depth int) (Expr, bool) {
	coeff, rest := splitIndependent(e, v)
	r, ok := integrateKernel(rest, v, depth)
	if !ok {
		return nil, false
	}
	return MulOf(coeff, r), true
}

func splitIndependent(e Expr, v string) (Expr, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return N(1), e
	}
	var indep, dep []Expr
	for _, f := range m.factors {
		if dependsOn(f, v) {
			dep = append(dep, f)
		} else {
			indep = append(indep, f)
		}
	}
	return MulOf(indep...), MulOf(dep...)
}

// linearCoeff returns a when e = a*v + b with a, b free of v and a != 0.
func linearCoeff(e Expr, v string) (Expr, bool) {
	a := Diff(e, v)
	if isNumEqual(a, 0) || dependsOn(a, v) {
		return nil, false
	}
	return a, true
}

func integrateKernel(f Expr, v string, depth int) (Expr, bool) {
	x := S(v)
	switch g := f.(type) {
	case *Num:
		return MulOf(g, x), true
	case *Sym:
		if g.name == v {
			return MulOf(F(1, 2), PowOf(x, N(2))), true
		}
		return MulOf(g, x), true
	case *Pow:
		if !dependsOn(g.exp, v) {
			if a, ok := linearCoeff(g.base, v); ok {
				if isNumEqual(g.exp, -1) {
					return MulOf(PowOf(a, N(-1)), LnOf(g.base)), true
				}
				n1 := AddOf(g.exp, N(1))
				return MulOf(PowOf(g.base, n1), PowOf(MulOf(a, n1), N(-1))), true
			}
		} else if !dependsOn(g.base, v) {
			if a, ok := linearCoeff(g.exp, v); ok {
				return MulOf(g, PowOf(MulOf(a, LnOf(g.base)), N(-1))), true
			}
		}
	case *Func:
		if r, ok := integrateFunc(g, v); ok {
			return r, true
		}
	case *Mul:
		if r, ok := integrateByParts(g, v, depth); ok {
			return r, true
		}
		if r, ok := integrateLogProduct(g, v); ok {
			return r, true
		}
	}
	if r, ok := integrateSubstitution(f, v, depth); ok {
		return r, true
	}
	return nil, false
}

// integrateFunc handles elementary functions of a linear argument.
func integrateFunc(g *Func, v string) (Expr, bool) {
	L := g.arg
	a, ok := linearCoeff(L, v)
	if !ok {
		return nil, false
	}
	inv := PowOf(a, N(-1))
	oneMinusSq := AddOf(N(1), MulOf(N(-1), PowOf(L, N(2))))
	var r Expr
	switch g.name {
	case "sin":
		r = MulOf(N(-1), CosOf(L))
	case "cos":
		r = SinOf(L)
	case "exp":
		r = ExpOf(L)
	case "sinh":
		r = CoshOf(L)
	case "cosh":
		r = SinhOf(L)
	case "tan":
		r = MulOf(N(-1), LnOf(CosOf(L)))
	case "tanh":
		r = LnOf(CoshOf(L))
	case "ln":
		r = AddOf(MulOf(L, LnOf(L)), MulOf(N(-1), L))
	case "asin":
		r = AddOf(MulOf(L, AsinOf(L)), SqrtOf(oneMinusSq))
	case "acos":
		r = AddOf(MulOf(L, AcosOf(L)), MulOf(N(-1), SqrtOf(oneMinusSq)))
	case "atan":
		r = AddOf(MulOf(L, AtanOf(L)), MulOf(F(-1, 2), LnOf(AddOf(N(1), PowOf(L, N(2))))))
	default:
		return nil, false
	}
	return MulOf(inv, r), true
}

// monomialPower matches v and v^n and returns n.
func monomialPower(e Expr, v string) (*Num, bool) {
	switch g := e.(type) {
	case *Sym:
		if g.name == v {
			return N(1), true
		}
	case *Pow:
		if s, ok := g.base.(*Sym); ok && s.name == v {
			if n, ok := g.exp.(*Num); ok {
				return n, true
			}
		}
	}
	return nil, false
}

// integrateByParts handles v^n * f(a*v + b) for f in exp, sin, cos, sinh and
// cosh with a positive integer n.
func integrateByParts(m *Mul, v string, depth int) (Expr, bool) {
	if len(m.factors) != 2 {
		return nil, false
	}
	for i := 0; i < 2; i++ {
		n, ok := monomialPower(m.factors[i], v)
		if !ok || !n.IsInteger() || !n.IsPositive() {
			continue
		}
		fn, ok := m.factors[1-i].(*Func)
		if !ok {
			continue
		}
		switch fn.name {
		case "exp", "sin", "cos", "sinh", "cosh":
		default:
			continue
		}
		anti, ok := integrateFunc(fn, v)
		if !ok {
			continue
		}
		x := S(v)
		rest := MulOf(n, PowOf(x, AddOf(n, N(-1))), anti)
		r2, ok := integrate(rest, v, depth+1)
		if !ok {
			return nil, false
		}
		return AddOf(MulOf(PowOf(x, n), anti), MulOf(N(-1), r2)), true
	}
	return nil, false
}

// integrateLogProduct handles v^n * ln(v).
func integrateLogProduct(m *Mul, v string) (Expr, bool) {
	if len(m.factors) != 2 {
		return nil, false
	}
	for i := 0; i < 2; i++ {
		n, ok := monomialPower(m.factors[i], v)
		if !ok {
			continue
		}
		fn, ok := m.factors[1-i].(*Func)
		if !ok || fn.name != "ln" || !fn.arg.Equal(S(v)) {
			continue
		}
		x := S(v)
		if n.IsNegOne() {
			return MulOf(F(1, 2), PowOf(LnOf(x), N(2))), true
		}
		n1 := numAdd(n, N(1))
		inv := numRecip(n1)
		return AddOf(
			MulOf(inv, PowOf(x, n1), LnOf(x)),
			MulOf(numNeg(numMul(inv, inv)), PowOf(x, n1)),
		), true
	}
	return nil, false
}

type substCandidate struct {
	inner Expr
	outer func(t Expr) Expr
	index int
}

// integrateSubstitution recognises f(u)*u' up to a constant factor.
func integrateSubstitution(f Expr, v string, depth int) (Expr, bool) {
	factors := []Expr{f}
	if m, ok := f.(*Mul); ok {
		factors = m.factors
	}
	var cands []substCandidate
	for i, fac := range factors {
		switch g := fac.(type) {
		case *Func:
			name := g.name
			cands = append(cands,
				substCandidate{inner: g.arg, outer: func(t Expr) Expr { return funcOf(name, t).Simplify() }, index: i},
				substCandidate{inner: g, outer: func(t Expr) Expr { return t }, index: i},
			)
		case *Pow:
			if !dependsOn(g.exp, v) {
				exp := g.exp
				cands = append(cands, substCandidate{inner: g.base, outer: func(t Expr) Expr { return PowOf(t, exp) }, index: i})
			} else if !dependsOn(g.base, v) {
				base := g.base
				cands = append(cands, substCandidate{inner: g.exp, outer: func(t Expr) Expr { return PowOf(base, t) }, index: i})
			}
		}
	}
	x := S(v)
	for _, c := range cands {
		if c.inner.Equal(x) || !dependsOn(c.inner, v) {
			continue
		}
		du := Diff(c.inner, v)
		if isNumEqual(du, 0) {
			continue
		}
		others := make([]Expr, 0, len(factors))
		for j, fac := range factors {
			if j != c.index {
				others = append(others, fac)
			}
		}
		ratio, err := Simplify(MulOf(MulOf(others...), PowOf(du, N(-1))))
		if err != nil || dependsOn(ratio, v) {
			continue
		}
		H, ok := integrate(c.outer(S(substVar)), substVar, depth+1)
		if !ok {
			continue
		}
		return MulOf(ratio, H.Sub(substVar, c.inner)), true
	}
	return nil, false
}

// ============================================================
// Rational functions: partial fractions over rational roots
// ============================================================

// integrateRational integrates p(v)/q(v) with numeric coefficients when q
// splits into rational linear factors.
func integrateRational(e Expr, v string) (Expr, bool) {
	r := newRing()
	num, den, err := r.rational(e)
	if err != nil {
		return nil, false
	}
	num, den = reduce(num, den)
	vi := -1
	for _, p := range []poly{num, den} {
		for _, i := range p.vars() {
			s, ok := r.atoms[i].(*Sym)
			if !ok || s.name != v {
				return nil, false
			}
			vi = i
		}
	}
	if vi < 0 {
		return nil, false
	}
	numU, denU := toUpoly(num, vi), toUpoly(den, vi)
	x := S(v)

	q, rem := numU.divmod(denU)
	terms := []Expr{}
	for k, c := range q {
		if c.Sign() == 0 {
			continue
		}
		coeff := new(big.Rat).Quo(c, big.NewRat(int64(k+1), 1))
		terms = append(terms, MulOf(NRat(coeff), PowOf(x, N(int64(k+1)))))
	}
	if rem.deg() < 0 {
		return AddOf(terms...), true
	}

	roots, mult, rest, ok := rationalRoots(denU)
	if !ok || rest.deg() > 0 {
		return nil, false
	}
	for i, root := range roots {
		m := mult[i]
		h := denU
		for k := 0; k < m; k++ {
			h = h.divLinear(root)
		}
		s := seriesQuo(rem.shift(root), h.shift(root), m)
		L := AddOf(x, NRat(new(big.Rat).Neg(root)))
		for j := 1; j <= m; j++ {
			A := s[m-j]
			if A.Sign() == 0 {
				continue
			}
			if j == 1 {
				terms = append(terms, MulOf(NRat(A), LnOf(L)))
				continue
			}
			c := new(big.Rat).Quo(A, big.NewRat(int64(1-j), 1))
			terms = append(terms, MulOf(NRat(c), PowOf(L, N(int64(1-j)))))
		}
	}
	return AddOf(terms...), true
}

func toUpoly(p poly, vi int) upoly {
	out := make(upoly, p.degree(vi)+1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	for _, t := range p {
		k := expAt(t.exps, vi)
		out[k] = new(big.Rat).Add(out[k], t.coeff)
	}
	return out
}
