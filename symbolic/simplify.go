package symbolic

import (
	"fmt"
	"math/big"
	"sort"
)

// ============================================================
// Rational normal form
// ============================================================

// ring maps the non-polynomial pieces of an expression (symbols and kernels
// such as exp(y) or sqrt(x)) to polynomial atoms.
type ring struct {
	atoms []Expr
	index map[string]int
	depth int
}

const (
	maxRingDepth = 64
	maxIntPower  = 64
)

func newRing() *ring { return &ring{index: map[string]int{}} }

func (r *ring) atom(e Expr) poly {
	key := e.String()
	i, ok := r.index[key]
	if !ok {
		i = len(r.atoms)
		r.atoms = append(r.atoms, e)
		r.index[key] = i
	}
	return polyMono(i, 1)
}

// order lists atom indices canonically: variables by name, then named
// constants, then kernels by rendering.
func (r *ring) order() []int {
	idx := make([]int, len(r.atoms))
	for i := range idx {
		idx[i] = i
	}
	rank := func(e Expr) int {
		if s, ok := e.(*Sym); ok {
			if constants[s.name] {
				return 1
			}
			return 0
		}
		return 2
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := r.atoms[idx[a]], r.atoms[idx[b]]
		if ra, rb := rank(ea), rank(eb); ra != rb {
			return ra < rb
		}
		return ea.String() < eb.String()
	})
	return idx
}

// rational converts e into num/den over the ring's atoms.
func (r *ring) rational(e Expr) (poly, poly, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxRingDepth {
		return r.atom(e), polyOne(), nil
	}

	switch v := e.(type) {
	case *Num:
		return polyConst(v.val), polyOne(), nil
	case *Sym:
		return r.atom(v), polyOne(), nil
	case *Add:
		num, den := poly{}, polyOne()
		for _, t := range v.terms {
			tn, td, err := r.rational(t)
			if err != nil {
				return nil, nil, err
			}
			g := polyGCD(den, td)
			dq, _ := den.divExact(g)
			tq, _ := td.divExact(g)
			num = num.mul(tq).add(tn.mul(dq))
			den = dq.mul(td)
		}
		num, den = reduce(num, den)
		return num, den, nil
	case *Mul:
		num, den := polyOne(), polyOne()
		for _, f := range v.factors {
			fn, fd, err := r.rational(f)
			if err != nil {
				return nil, nil, err
			}
			num, den = num.mul(fn), den.mul(fd)
		}
		num, den = reduce(num, den)
		return num, den, nil
	case *Pow:
		return r.rationalPow(v)
	case *Func:
		argN, err := normalForm(v.arg)
		if err != nil {
			return nil, nil, err
		}
		f := funcOf(v.name, argN).Simplify()
		if fn, ok := f.(*Func); ok && fn.name == v.name {
			return r.atom(fn), polyOne(), nil
		}
		return r.rational(f)
	}
	return r.atom(e), polyOne(), nil
}

func (r *ring) rationalPow(p *Pow) (poly, poly, error) {
	en, ok := p.exp.(*Num)
	if !ok {
		base, err := normalForm(p.base)
		if err != nil {
			return nil, nil, err
		}
		exp, err := normalForm(p.exp)
		if err != nil {
			return nil, nil, err
		}
		return r.atomOrRecurse(PowOf(base, exp), p)
	}

	if en.IsInteger() {
		k := en.val.Num()
		if !k.IsInt64() || k.Int64() > maxIntPower || k.Int64() < -maxIntPower {
			return r.atom(p), polyOne(), nil
		}
		bn, bd, err := r.rational(p.base)
		if err != nil {
			return nil, nil, err
		}
		n := int(k.Int64())
		if n < 0 {
			if bn.isZero() {
				return nil, nil, fmt.Errorf("%w: %s", ErrUndefined, p.String())
			}
			bn, bd, n = bd, bn, -n
		}
		return bn.pow(n), bd.pow(n), nil
	}

	// base^(a/q) = (base^(1/q))^a with base^(1/q) as the atom.
	base, err := normalForm(p.base)
	if err != nil {
		return nil, nil, err
	}
	if bn, ok := base.(*Num); ok && bn.IsZero() && en.IsNegative() {
		return nil, nil, fmt.Errorf("%w: %s", ErrUndefined, p.String())
	}
	a := en.val.Num().Int64()
	q := en.val.Denom().Int64()
	root := PowOf(base, F(1, q))
	rp, isPow := root.(*Pow)
	if !isPow || !rp.exp.Equal(F(1, q)) {
		return r.rational(PowOf(root, N(a)))
	}
	rn, rd := r.atom(rp), polyOne()
	if a < 0 {
		rn, rd, a = rd, rn, -a
	}
	if a > maxIntPower {
		return r.atom(p), polyOne(), nil
	}
	return rn.pow(int(a)), rd.pow(int(a)), nil
}

func (r *ring) atomOrRecurse(e Expr, orig *Pow) (poly, poly, error) {
	if p, ok := e.(*Pow); ok {
		if _, isNum := p.exp.(*Num); !isNum {
			return r.atom(p), polyOne(), nil
		}
	}
	if e.Equal(orig) {
		return r.atom(e), polyOne(), nil
	}
	return r.rational(e)
}

func (r *ring) toExpr(p poly) Expr {
	terms := make([]Expr, 0, len(p))
	for _, t := range p {
		factors := []Expr{NRat(t.coeff)}
		for i, e := range t.exps {
			if e > 0 {
				factors = append(factors, PowOf(r.atoms[i], N(int64(e))))
			}
		}
		terms = append(terms, MulOf(factors...))
	}
	return AddOf(terms...)
}

// normalForm rewrites e as one reduced fraction over its atoms.
func normalForm(e Expr) (Expr, error) {
	r := newRing()
	num, den, err := r.rational(e.Simplify())
	if err != nil {
		return nil, err
	}
	if den.isZero() {
		return nil, fmt.Errorf("%w: zero denominator in %s", ErrUndefined, e.String())
	}
	num, den = reduce(num, den)
	num, den = normalizeDen(num, den, r.order())
	n := r.toExpr(num)
	if c, ok := den.constant(); ok {
		if c.Cmp(big.NewRat(1, 1)) == 0 {
			return n, nil
		}
		return MulOf(NRat(new(big.Rat).Inv(c)), n), nil
	}
	return MulOf(n, PowOf(r.toExpr(den), N(-1))), nil
}

// ============================================================
// Public simplification entry points
// ============================================================

// maxSimplifyPasses bounds the normal-form/trig fixpoint loop.
const maxSimplifyPasses = 8

// Simplify brings e to rational normal form, cancelling common polynomial
// factors, and applies the Pythagorean identity until the rendering is
// stable. It fails with ErrUndefined on zero denominators.
func Simplify(e Expr) (Expr, error) {
	cur := e.Simplify()
	if err := checkDefined(cur); err != nil {
		return nil, err
	}
	prev := ""
	for i := 0; i < maxSimplifyPasses; i++ {
		s := cur.String()
		if s == prev {
			break
		}
		prev = s
		nf, err := normalForm(cur)
		if err != nil {
			return nil, err
		}
		cur = TrigSimplify(nf)
	}
	return cur, nil
}

// checkDefined rejects 0^k for k <= 0 left by the constructors.
func checkDefined(e Expr) error {
	switch v := e.(type) {
	case *Pow:
		if b, ok := v.base.(*Num); ok && b.IsZero() {
			return fmt.Errorf("%w: %s", ErrUndefined, v.String())
		}
		if err := checkDefined(v.base); err != nil {
			return err
		}
		return checkDefined(v.exp)
	case *Add:
		for _, t := range v.terms {
			if err := checkDefined(t); err != nil {
				return err
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if err := checkDefined(f); err != nil {
				return err
			}
		}
	case *Func:
		return checkDefined(v.arg)
	}
	return nil
}

// Equivalent reports whether a - b simplifies to zero.
func Equivalent(a, b Expr) (bool, error) {
	d, err := Simplify(AddOf(a, MulOf(N(-1), b)))
	if err != nil {
		return false, err
	}
	return isNumEqual(d, 0), nil
}

// ============================================================
// Trig identities
// ============================================================

// TrigSimplify rewrites c*R*sin(u)^2 + c*R*cos(u)^2 as c*R, and likewise
// cosh(u)^2 - sinh(u)^2 as 1.
func TrigSimplify(e Expr) Expr {
	return trigSimplifyExpr(e.Simplify()).Simplify()
}

func trigSimplifyExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = trigSimplifyExpr(t)
		}
		return trigFindPythagorean(AddOf(newTerms...))
	case *Mul:
		newFactors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			newFactors[i] = trigSimplifyExpr(f)
		}
		return MulOf(newFactors...)
	case *Pow:
		return PowOf(trigSimplifyExpr(v.base), v.exp)
	case *Func:
		return funcOf(v.name, trigSimplifyExpr(v.arg)).Simplify()
	}
	return e
}

type trigTerm struct {
	funcName string
	argStr   string
	restStr  string
	coeff    *Num
	rest     Expr
	idx      int
}

// squaredTrig finds a sin², cos², sinh² or cosh² factor in a term and
// returns the term split around it.
func squaredTrig(t Expr, idx int) (trigTerm, bool) {
	coeff, inner := splitCoeff(t)
	factors := []Expr{inner}
	if m, ok := inner.(*Mul); ok {
		factors = m.factors
	}
	for i, f := range factors {
		p, ok := f.(*Pow)
		if !ok || !isNumEqual(p.exp, 2) {
			continue
		}
		fn, ok := p.base.(*Func)
		if !ok {
			continue
		}
		switch fn.name {
		case "sin", "cos", "sinh", "cosh":
		default:
			continue
		}
		others := make([]Expr, 0, len(factors)-1)
		others = append(others, factors[:i]...)
		others = append(others, factors[i+1:]...)
		rest := MulOf(others...)
		return trigTerm{
			funcName: fn.name,
			argStr:   fn.arg.String(),
			restStr:  rest.String(),
			coeff:    coeff,
			rest:     rest,
			idx:      idx,
		}, true
	}
	return trigTerm{}, false
}

func trigFindPythagorean(e Expr) Expr {
	add, ok := e.(*Add)
	if !ok {
		return e
	}
	var trigTerms []trigTerm
	for idx, t := range add.terms {
		if tt, ok := squaredTrig(t, idx); ok {
			trigTerms = append(trigTerms, tt)
		}
	}
	for i := 0; i < len(trigTerms); i++ {
		for j := i + 1; j < len(trigTerms); j++ {
			ti, tj := trigTerms[i], trigTerms[j]
			if ti.argStr != tj.argStr || ti.restStr != tj.restStr {
				continue
			}
			pair := ti.funcName + "+" + tj.funcName
			var matched bool
			switch pair {
			case "sin+cos", "cos+sin":
				matched = ti.coeff.val.Cmp(tj.coeff.val) == 0
			case "cosh+sinh":
				matched = ti.coeff.val.Cmp(numNeg(tj.coeff).val) == 0
			case "sinh+cosh":
				matched = tj.coeff.val.Cmp(numNeg(ti.coeff).val) == 0
			}
			if !matched {
				continue
			}
			c := ti.coeff
			if ti.funcName == "sinh" {
				c = tj.coeff
			}
			newTerms := []Expr{}
			for idx, t := range add.terms {
				if idx != ti.idx && idx != tj.idx {
					newTerms = append(newTerms, t)
				}
			}
			newTerms = append(newTerms, MulOf(c, ti.rest))
			return trigFindPythagorean(AddOf(newTerms...))
		}
	}
	return e
}
