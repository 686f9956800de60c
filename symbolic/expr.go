// Package symbolic is the deterministic symbolic math kernel behind exactode.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic simplification and stable, canonical output
//   - Plain-text and LaTeX rendering of every expression
//   - Rational normal form with multivariate polynomial cancellation
//   - Rule-based symbolic integration good enough for exact ODEs
package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is an immutable symbolic expression. Every transformation returns a
// new Expr.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Equal(other Expr) bool
	toJSON() map[string]interface{}
}

// constants are symbol names that never count as free variables.
var constants = map[string]bool{"pi": true}

// ============================================================
// Num — exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NRat wraps a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// numPow raises a to an integer power exactly. ok is false for 0^-k.
func numPow(a *Num, k int64) (*Num, bool) {
	if k == 0 {
		return N(1), true
	}
	neg := k < 0
	if neg {
		if a.IsZero() {
			return nil, false
		}
		k = -k
	}
	e := big.NewInt(k)
	num := new(big.Int).Exp(a.val.Num(), e, nil)
	den := new(big.Int).Exp(a.val.Denom(), e, nil)
	r := &Num{val: new(big.Rat).SetFrac(num, den)}
	if neg {
		return numRecip(r), true
	}
	return r, true
}

// numSqrt returns the exact square root of a non-negative perfect square.
func numSqrt(a *Num) (*Num, bool) {
	if a.IsNegative() {
		return nil, false
	}
	num, den := a.val.Num(), a.val.Denom()
	rn, rd := new(big.Int).Sqrt(num), new(big.Int).Sqrt(den)
	if new(big.Int).Mul(rn, rn).Cmp(num) != 0 || new(big.Int).Mul(rd, rd).Cmp(den) != 0 {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFrac(rn, rd)}, true
}

// ============================================================
// Sym — symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string {
	if s.name == "pi" {
		return "\\pi"
	}
	return s.name
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Canonical ordering
// ============================================================

// degreeOf is the total degree used to order the terms of a sum. Symbols and
// function kernels count one per power; constants count zero.
func degreeOf(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		if constants[v.name] {
			return 0
		}
		return 1
	case *Func:
		return 1
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			return degreeOf(v.base) * int(n.val.Num().Int64())
		}
		return 0
	case *Mul:
		d := 0
		for _, f := range v.factors {
			d += degreeOf(f)
		}
		return d
	case *Add:
		d := 0
		for i, t := range v.terms {
			if td := degreeOf(t); i == 0 || td > d {
				d = td
			}
		}
		return d
	}
	return 0
}

// termLess orders the non-numeric terms of a sum: higher degree first, then
// by rendering.
func termLess(a, b Expr) bool {
	_, ra := splitCoeff(a)
	_, rb := splitCoeff(b)
	da, db := degreeOf(ra), degreeOf(rb)
	if da != db {
		return da > db
	}
	sa, sb := ra.String(), rb.String()
	if sa != sb {
		return sa < sb
	}
	return a.String() < b.String()
}

// factorRank groups the factors of a product: symbols, numeric bases, sums,
// then function kernels.
func factorRank(e Expr) int {
	base := e
	if p, ok := e.(*Pow); ok {
		base = p.base
	}
	switch v := base.(type) {
	case *Sym:
		if constants[v.name] {
			return 1
		}
		return 0
	case *Num:
		return 1
	case *Add:
		return 2
	case *Func:
		return 3
	}
	return 4
}

func factorLess(a, b Expr) bool {
	ra, rb := factorRank(a), factorRank(b)
	if ra != rb {
		return ra < rb
	}
	ba, _ := asPower(a)
	bb, _ := asPower(b)
	sa, sb := ba.String(), bb.String()
	if sa != sb {
		return sa < sb
	}
	return a.String() < b.String()
}

// splitCoeff separates the numeric coefficient of a term.
func splitCoeff(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// withCoeff rebuilds c*rest for a rest that is already canonical.
func withCoeff(c *Num, rest Expr) Expr {
	if c.IsOne() {
		return rest
	}
	if m, ok := rest.(*Mul); ok {
		return &Mul{factors: append([]Expr{c}, m.factors...)}
	}
	return &Mul{factors: []Expr{c, rest}}
}

func asPower(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

// isNegativeTerm reports whether a term renders with a leading minus.
func isNegativeTerm(e Expr) bool {
	c, _ := splitCoeff(e)
	if n, ok := e.(*Num); ok {
		return n.IsNegative()
	}
	return c.IsNegative()
}

func isAdd(e Expr) bool { _, ok := e.(*Add); return ok }

func negateTerm(e Expr) Expr {
	if n, ok := e.(*Num); ok {
		return numNeg(n)
	}
	c, rest := splitCoeff(e)
	return withCoeff(numNeg(c), rest)
}

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	numAccum := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		c, rest := splitCoeff(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}
	result := make([]Expr, 0, len(order)+1)
	nested := false
	for _, key := range order {
		c := coeffs[key]
		if c.IsZero() {
			continue
		}
		t := withCoeff(c, rests[key])
		if inner, ok := t.(*Add); ok {
			// A sum with coefficient one folds back into this sum.
			result = append(result, inner.terms...)
			nested = true
			continue
		}
		result = append(result, t)
	}
	if nested {
		return AddOf(append(result, numAccum)...)
	}
	sort.SliceStable(result, func(i, j int) bool { return termLess(result[i], result[j]) })
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	if len(a.terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range a.terms {
		switch {
		case i == 0:
			b.WriteString(t.String())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			if neg := negateTerm(t); isAdd(neg) {
				b.WriteString("(" + neg.String() + ")")
			} else {
				b.WriteString(neg.String())
			}
		default:
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.terms {
		switch {
		case i == 0:
			b.WriteString(t.LaTeX())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			if neg := negateTerm(t); isAdd(neg) {
				b.WriteString("\\left(" + neg.LaTeX() + "\\right)")
			} else {
				b.WriteString(neg.LaTeX())
			}
		default:
			b.WriteString(" + ")
			b.WriteString(t.LaTeX())
		}
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like bases are merged by adding exponents; exponentials merge their
	// arguments.
	coeff := N(1)
	exps := map[string][]Expr{}
	bases := map[string]Expr{}
	order := []string{}
	var expArgs []Expr
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		if fn, ok := f.(*Func); ok && fn.name == "exp" {
			expArgs = append(expArgs, fn.arg)
			continue
		}
		base, exp := asPower(f)
		key := base.String()
		if _, seen := bases[key]; !seen {
			order = append(order, key)
			bases[key] = base
		}
		exps[key] = append(exps[key], exp)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := make([]Expr, 0, len(order)+1)
	repass := false
	for _, key := range order {
		var p Expr
		if len(exps[key]) == 1 {
			p = (&Pow{base: bases[key], exp: exps[key][0]}).Simplify()
		} else {
			p = PowOf(bases[key], AddOf(exps[key]...))
		}
		switch p.(type) {
		case *Num, *Mul:
			repass = true
		}
		others = append(others, p)
	}
	if len(expArgs) > 0 {
		e := ExpOf(AddOf(expArgs...))
		switch e.(type) {
		case *Num, *Mul, *Pow:
			repass = true
		}
		others = append(others, e)
	}
	if repass {
		return MulOf(append([]Expr{coeff}, others...)...)
	}
	if len(others) == 0 {
		return coeff
	}
	sort.SliceStable(others, func(i, j int) bool { return factorLess(others[i], others[j]) })

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// fraction splits a product into its sign, numerator and denominator parts
// for rendering. Negative integer powers move to the denominator.
func (m *Mul) fraction() (negative bool, coeffNum, coeffDen *big.Int, num, den []Expr) {
	c := N(1)
	for _, f := range m.factors {
		switch v := f.(type) {
		case *Num:
			c = numMul(c, v)
			continue
		case *Pow:
			if e, ok := v.exp.(*Num); ok && e.IsNegative() {
				den = append(den, (&Pow{base: v.base, exp: numNeg(e)}).Simplify())
				continue
			}
		}
		num = append(num, f)
	}
	negative = c.IsNegative()
	r := new(big.Rat).Abs(c.val)
	return negative, r.Num(), r.Denom(), num, den
}

func (m *Mul) String() string {
	if len(m.factors) == 0 {
		return "1"
	}
	negative, cn, cd, num, den := m.fraction()
	one := big.NewInt(1)

	numParts := []string{}
	if cn.Cmp(one) != 0 || len(num) == 0 {
		numParts = append(numParts, cn.String())
	}
	for _, f := range num {
		if _, isAdd := f.(*Add); isAdd {
			numParts = append(numParts, "("+f.String()+")")
		} else {
			numParts = append(numParts, f.String())
		}
	}
	denParts := []string{}
	if cd.Cmp(one) != 0 {
		denParts = append(denParts, cd.String())
	}
	for _, f := range den {
		if _, isAdd := f.(*Add); isAdd && (len(den) > 1 || cd.Cmp(one) != 0) {
			denParts = append(denParts, "("+f.String()+")")
		} else {
			denParts = append(denParts, f.String())
		}
	}

	out := strings.Join(numParts, "*")
	if len(denParts) > 0 {
		denStr := strings.Join(denParts, "*")
		if len(denParts) > 1 {
			denStr = "(" + denStr + ")"
		} else if len(den) == 1 && cd.Cmp(one) == 0 {
			if _, isAdd := den[0].(*Add); isAdd {
				denStr = "(" + denStr + ")"
			}
		}
		out += "/" + denStr
	}
	if negative {
		return "-" + out
	}
	return out
}

func (m *Mul) LaTeX() string {
	negative, cn, cd, num, den := m.fraction()
	one := big.NewInt(1)

	numParts := []string{}
	if cn.Cmp(one) != 0 || len(num) == 0 {
		numParts = append(numParts, cn.String())
	}
	for _, f := range num {
		if _, isAdd := f.(*Add); isAdd && (len(num) > 1 || cn.Cmp(one) != 0 || (len(den) == 0 && cd.Cmp(one) == 0 && negative)) {
			numParts = append(numParts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			numParts = append(numParts, f.LaTeX())
		}
	}
	out := strings.Join(numParts, " ")
	if len(den) > 0 || cd.Cmp(one) != 0 {
		denParts := []string{}
		if cd.Cmp(one) != 0 {
			denParts = append(denParts, cd.String())
		}
		for _, f := range den {
			if _, isAdd := f.(*Add); isAdd && (len(den) > 1 || cd.Cmp(one) != 0) {
				denParts = append(denParts, "\\left("+f.LaTeX()+"\\right)")
			} else {
				denParts = append(denParts, f.LaTeX())
			}
		}
		out = "\\frac{" + out + "}{" + strings.Join(denParts, " ") + "}"
	}
	if negative {
		return "-" + out
	}
	return out
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors))
		others = append(others, dfi)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(others...)
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		switch {
		case bn.IsZero():
			// 0^0 and 0^negative stay unevaluated; Simplify reports them.
			if expIsNum && en.IsPositive() {
				return N(0)
			}
			return &Pow{base: base, exp: exp}
		case bn.IsOne():
			return N(1)
		}
		if expIsNum && en.IsInteger() {
			k := en.val.Num()
			if k.IsInt64() && k.Int64() >= -1000 && k.Int64() <= 1000 {
				if r, ok := numPow(bn, k.Int64()); ok {
					return r
				}
			}
		}
		if expIsNum && en.val.Cmp(big.NewRat(1, 2)) == 0 {
			if r, ok := numSqrt(bn); ok {
				return r
			}
		}
	}

	switch b := base.(type) {
	case *Pow:
		if expIsNum && en.IsInteger() {
			return PowOf(b.base, MulOf(b.exp, exp))
		}
	case *Mul:
		if expIsNum && en.IsInteger() {
			factors := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				factors[i] = PowOf(f, exp)
			}
			return MulOf(factors...)
		}
	case *Func:
		if b.name == "exp" {
			return ExpOf(MulOf(b.arg, exp))
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) isSqrt() bool {
	e, ok := p.exp.(*Num)
	return ok && e.val.Cmp(big.NewRat(1, 2)) == 0
}

func (p *Pow) String() string {
	if e, ok := p.exp.(*Num); ok && e.IsNegative() {
		return (&Mul{factors: []Expr{p}}).String()
	}
	if p.isSqrt() {
		return "sqrt(" + p.base.String() + ")"
	}
	baseStr := p.base.String()
	if needsBaseParens(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym, *Func:
	case *Num:
		if !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok && e.IsNegative() {
		return (&Mul{factors: []Expr{p}}).LaTeX()
	}
	if p.isSqrt() {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	expStr := p.exp.LaTeX()
	if fn, ok := p.base.(*Func); ok {
		switch fn.name {
		case "sin", "cos", "tan", "sinh", "cosh", "tanh", "ln":
			return "\\" + fn.name + "^{" + expStr + "}\\left(" + fn.arg.LaTeX() + "\\right)"
		}
	}
	baseStr := p.base.LaTeX()
	if needsBaseParens(p.base) {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + expStr + "}"
}

func needsBaseParens(base Expr) bool {
	switch b := base.(type) {
	case *Add, *Mul, *Pow:
		return true
	case *Num:
		return b.IsNegative() || !b.IsInteger()
	}
	return false
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if _, expIsNum := p.exp.(*Num); expIsNum {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if _, baseIsNum := p.base.(*Num); baseIsNum {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Func — named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg).Simplify() }
func SignOf(arg Expr) Expr { return funcOf("sign", arg).Simplify() }

// knownFuncs lists the function names the parser and JSON codec accept.
var knownFuncs = map[string]bool{
	"sin": true, "cos": true, "tan": true, "exp": true, "ln": true, "abs": true,
	"asin": true, "acos": true, "atan": true, "sinh": true, "cosh": true, "tanh": true,
	"sign": true,
}

// negatedArg reports whether arg carries a negative numeric coefficient and
// returns its negation.
func negatedArg(arg Expr) (Expr, bool) {
	switch v := arg.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
			_, rest := splitCoeff(v)
			return withCoeff(numNeg(c), rest), true
		}
	}
	return nil, false
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	switch f.name {
	case "sin", "tan", "asin", "atan", "sinh", "tanh":
		if isNumEqual(arg, 0) {
			return N(0)
		}
		if pos, ok := negatedArg(arg); ok {
			return MulOf(N(-1), funcOf(f.name, pos).Simplify())
		}
	case "cos", "cosh":
		if isNumEqual(arg, 0) {
			return N(1)
		}
		if pos, ok := negatedArg(arg); ok {
			return funcOf(f.name, pos).Simplify()
		}
	case "acos":
		if isNumEqual(arg, 1) {
			return N(0)
		}
	case "exp":
		return simplifyExp(arg)
	case "ln":
		if isNumEqual(arg, 1) {
			return N(0)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
		if pos, ok := negatedArg(arg); ok {
			return AbsOf(pos)
		}
	case "sign":
		if n, ok := arg.(*Num); ok {
			return N(int64(n.val.Sign()))
		}
	}
	return &Func{name: f.name, arg: arg}
}

// simplifyExp folds exp(0) = 1, exp(ln u) = u and exp(a + k*ln u) = u^k*exp(a).
func simplifyExp(arg Expr) Expr {
	if isNumEqual(arg, 0) {
		return N(1)
	}
	terms := []Expr{arg}
	if a, ok := arg.(*Add); ok {
		terms = a.terms
	}
	var keep, pulled []Expr
	for _, t := range terms {
		if k, u, ok := scaledLog(t); ok {
			pulled = append(pulled, PowOf(u, k))
			continue
		}
		keep = append(keep, t)
	}
	if len(pulled) == 0 {
		return &Func{name: "exp", arg: arg}
	}
	if len(keep) > 0 {
		pulled = append(pulled, funcOf("exp", AddOf(keep...)).Simplify())
	}
	return MulOf(pulled...)
}

// scaledLog matches ln(u) and k*ln(u) for a rational k.
func scaledLog(t Expr) (*Num, Expr, bool) {
	switch v := t.(type) {
	case *Func:
		if v.name == "ln" {
			return N(1), v.arg, true
		}
	case *Mul:
		if len(v.factors) == 2 {
			if k, ok := v.factors[0].(*Num); ok {
				if fn, ok := v.factors[1].(*Func); ok && fn.name == "ln" {
					return k, fn.arg, true
				}
			}
		}
	}
	return nil, nil, false
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "exp":
		return "e^{" + f.arg.LaTeX() + "}"
	case "sin", "cos", "tan", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "sign":
		return "\\operatorname{sign}\\left(" + f.arg.LaTeX() + "\\right)"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	if isNumEqual(du, 0) {
		return N(0)
	}
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = SignOf(f.arg)
	case "sign":
		return N(0)
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.Cmp(new(big.Rat).SetInt64(v)) == 0
}

// ============================================================
// Equation
// ============================================================

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }
func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
func (e *Equation) LaTeX() string { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// ============================================================
// Top-level convenience functions
// ============================================================

func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func DiffN(expr Expr, varName string, n int) Expr {
	result := expr
	for i := 0; i < n; i++ {
		result = Diff(result, varName)
	}
	return result
}

// Expand distributes products over sums and expands small integer powers of
// sums.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			if a, ok := f.(*Add); ok {
				rest := make([]Expr, 0, len(expanded)-1)
				for j, ef := range expanded {
					if j != i {
						rest = append(rest, ef)
					}
				}
				terms := make([]Expr, len(a.terms))
				for k, t := range a.terms {
					terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
				}
				return AddOf(terms...)
			}
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			exp := n.val.Num().Int64()
			if exp >= 2 && exp <= 10 {
				if _, isAdd := v.base.(*Add); isAdd {
					result := Expr(N(1))
					base := expandExpr(v.base)
					for i := int64(0); i < exp; i++ {
						result = expandExpr(MulOf(result, base))
					}
					return result
				}
			}
		}
		return PowOf(expandExpr(v.base), v.exp)
	case *Func:
		return funcOf(v.name, expandExpr(v.arg)).Simplify()
	}
	return e
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the variable names occurring in e. Named constants
// such as pi are excluded.
func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		if !constants[v.name] {
			out[v.name] = struct{}{}
		}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// dependsOn reports whether varName occurs in e.
func dependsOn(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}
