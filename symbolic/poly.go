package symbolic

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Sparse multivariate polynomials over ℚ
// ============================================================

// pterm is one monomial: coeff * Π atom_i^exps[i].
type pterm struct {
	exps  []int
	coeff *big.Rat
}

// poly maps an exponent-vector key to its term. Exponent vectors have their
// trailing zeros trimmed so vectors of different length compare correctly.
// The zero polynomial is the empty map.
type poly map[string]pterm

func expKey(exps []int) string {
	var b strings.Builder
	for i, e := range exps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

func trimExps(exps []int) []int {
	n := len(exps)
	for n > 0 && exps[n-1] == 0 {
		n--
	}
	out := make([]int, n)
	copy(out, exps[:n])
	return out
}

func expAt(exps []int, v int) int {
	if v < len(exps) {
		return exps[v]
	}
	return 0
}

func (p poly) addTerm(exps []int, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	exps = trimExps(exps)
	k := expKey(exps)
	if t, ok := p[k]; ok {
		sum := new(big.Rat).Add(t.coeff, c)
		if sum.Sign() == 0 {
			delete(p, k)
			return
		}
		p[k] = pterm{exps: t.exps, coeff: sum}
		return
	}
	p[k] = pterm{exps: exps, coeff: new(big.Rat).Set(c)}
}

func polyConst(c *big.Rat) poly {
	p := poly{}
	p.addTerm(nil, c)
	return p
}

func polyOne() poly { return polyConst(big.NewRat(1, 1)) }

// polyMono returns atom v raised to k.
func polyMono(v, k int) poly {
	exps := make([]int, v+1)
	exps[v] = k
	p := poly{}
	p.addTerm(exps, big.NewRat(1, 1))
	return p
}

func (p poly) isZero() bool { return len(p) == 0 }

// constant reports the value of a constant polynomial.
func (p poly) constant() (*big.Rat, bool) {
	switch len(p) {
	case 0:
		return new(big.Rat), true
	case 1:
		if t, ok := p[""]; ok {
			return t.coeff, true
		}
	}
	return nil, false
}

func (p poly) isConst() bool { _, ok := p.constant(); return ok }

func (p poly) clone() poly {
	out := make(poly, len(p))
	for k, t := range p {
		out[k] = pterm{exps: t.exps, coeff: new(big.Rat).Set(t.coeff)}
	}
	return out
}

func (p poly) add(q poly) poly {
	out := p.clone()
	for _, t := range q {
		out.addTerm(t.exps, t.coeff)
	}
	return out
}

func (p poly) neg() poly { return p.scale(big.NewRat(-1, 1)) }

func (p poly) sub(q poly) poly { return p.add(q.neg()) }

func (p poly) scale(c *big.Rat) poly {
	out := poly{}
	if c.Sign() == 0 {
		return out
	}
	for _, t := range p {
		out.addTerm(t.exps, new(big.Rat).Mul(t.coeff, c))
	}
	return out
}

func addExps(a, b []int) []int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = expAt(a, i) + expAt(b, i)
	}
	return out
}

// subExps returns a-b when every component stays non-negative.
func subExps(a, b []int) ([]int, bool) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = expAt(a, i) - expAt(b, i)
		if out[i] < 0 {
			return nil, false
		}
	}
	return out, true
}

func (p poly) mul(q poly) poly {
	out := poly{}
	for _, a := range p {
		for _, b := range q {
			out.addTerm(addExps(a.exps, b.exps), new(big.Rat).Mul(a.coeff, b.coeff))
		}
	}
	return out
}

func (p poly) pow(k int) poly {
	result := polyOne()
	base := p
	for k > 0 {
		if k&1 == 1 {
			result = result.mul(base)
		}
		k >>= 1
		if k > 0 {
			base = base.mul(base)
		}
	}
	return result
}

func (p poly) degree(v int) int {
	d := 0
	for _, t := range p {
		if e := expAt(t.exps, v); e > d {
			d = e
		}
	}
	return d
}

func (p poly) has(v int) bool {
	for _, t := range p {
		if expAt(t.exps, v) > 0 {
			return true
		}
	}
	return false
}

// vars lists the atom indices that occur in p, ascending.
func (p poly) vars() []int {
	seen := map[int]bool{}
	for _, t := range p {
		for i, e := range t.exps {
			if e > 0 {
				seen[i] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// coeffOf returns the coefficient of atom v^k, a polynomial in the other atoms.
func (p poly) coeffOf(v, k int) poly {
	out := poly{}
	for _, t := range p {
		if expAt(t.exps, v) != k {
			continue
		}
		exps := make([]int, len(t.exps))
		copy(exps, t.exps)
		if v < len(exps) {
			exps[v] = 0
		}
		out.addTerm(exps, t.coeff)
	}
	return out
}

// lexCmp compares exponent vectors lexicographically. A nil order means
// ascending atom index; otherwise atoms are compared in the given order.
func lexCmp(a, b []int, order []int) int {
	if order == nil {
		n := len(a)
		if len(b) > n {
			n = len(b)
		}
		for i := 0; i < n; i++ {
			if d := expAt(a, i) - expAt(b, i); d != 0 {
				if d > 0 {
					return 1
				}
				return -1
			}
		}
		return 0
	}
	for _, i := range order {
		if d := expAt(a, i) - expAt(b, i); d != 0 {
			if d > 0 {
				return 1
			}
			return -1
		}
	}
	return 0
}

func (p poly) lead(order []int) pterm {
	var best pterm
	first := true
	for _, t := range p {
		if first || lexCmp(t.exps, best.exps, order) > 0 {
			best = t
			first = false
		}
	}
	return best
}

// divExact divides p by q when q divides p exactly.
func (p poly) divExact(q poly) (poly, bool) {
	if q.isZero() {
		return nil, false
	}
	if c, ok := q.constant(); ok {
		return p.scale(new(big.Rat).Inv(c)), true
	}
	lq := q.lead(nil)
	r := p.clone()
	quot := poly{}
	for !r.isZero() {
		lr := r.lead(nil)
		d, ok := subExps(lr.exps, lq.exps)
		if !ok {
			return nil, false
		}
		t := poly{}
		t.addTerm(d, new(big.Rat).Quo(lr.coeff, lq.coeff))
		quot = quot.add(t)
		r = r.sub(t.mul(q))
	}
	return quot, true
}

// prem is the pseudo-remainder of a by b with respect to atom v.
func prem(a, b poly, v int) poly {
	db := b.degree(v)
	lc := b.coeffOf(v, db)
	r := a.clone()
	for !r.isZero() && r.degree(v) >= db {
		dr := r.degree(v)
		t := r.coeffOf(v, dr).mul(polyMono(v, dr-db))
		r = r.mul(lc).sub(t.mul(b))
	}
	return r
}

// monic scales p so that its leading coefficient is one.
func (p poly) monic() poly {
	if p.isZero() {
		return p
	}
	return p.scale(new(big.Rat).Inv(p.lead(nil).coeff))
}

// content is the gcd of the coefficients of p viewed as a polynomial in v.
func content(p poly, v int) poly {
	degs := map[int]bool{}
	for _, t := range p {
		degs[expAt(t.exps, v)] = true
	}
	ks := make([]int, 0, len(degs))
	for k := range degs {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	g := poly{}
	for _, k := range ks {
		g = polyGCD(g, p.coeffOf(v, k))
		if g.isConst() {
			return polyOne()
		}
	}
	return g
}

func primitive(p poly, v int) poly {
	c := content(p, v)
	q, ok := p.divExact(c)
	if !ok {
		return p
	}
	return q
}

// polyGCD computes a monic greatest common divisor with a recursive primitive
// polynomial remainder sequence.
func polyGCD(a, b poly) poly {
	switch {
	case a.isZero():
		return b.monic()
	case b.isZero():
		return a.monic()
	case a.isConst() || b.isConst():
		return polyOne()
	}
	v := -1
	for _, vs := range [][]int{a.vars(), b.vars()} {
		if len(vs) > 0 && (v < 0 || vs[0] < v) {
			v = vs[0]
		}
	}
	if !a.has(v) {
		return polyGCD(a, content(b, v))
	}
	if !b.has(v) {
		return polyGCD(content(a, v), b)
	}
	ca, cb := content(a, v), content(b, v)
	pa, _ := a.divExact(ca)
	pb, _ := b.divExact(cb)
	c := polyGCD(ca, cb)
	if pa.degree(v) < pb.degree(v) {
		pa, pb = pb, pa
	}
	for {
		r := prem(pa, pb, v)
		if r.isZero() {
			break
		}
		if !r.has(v) {
			pb = polyOne()
			break
		}
		pa, pb = pb, primitive(r, v)
	}
	return c.mul(pb).monic()
}

// reduce cancels the common factor of a fraction num/den.
func reduce(num, den poly) (poly, poly) {
	if num.isZero() {
		return poly{}, polyOne()
	}
	g := polyGCD(num, den)
	if g.isConst() {
		return num, den
	}
	n, ok1 := num.divExact(g)
	d, ok2 := den.divExact(g)
	if !ok1 || !ok2 {
		return num, den
	}
	return n, d
}

// normalizeDen rescales num/den so that den has coprime integer
// coefficients and a positive leading term in the given atom order.
func normalizeDen(num, den poly, order []int) (poly, poly) {
	lcm := big.NewInt(1)
	for _, t := range den {
		d := t.coeff.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	var g *big.Int
	for _, t := range den {
		n := new(big.Int).Mul(t.coeff.Num(), new(big.Int).Quo(lcm, t.coeff.Denom()))
		n.Abs(n)
		if g == nil {
			g = n
		} else {
			g = new(big.Int).GCD(nil, nil, g, n)
		}
	}
	if g == nil || g.Sign() == 0 {
		return num, den
	}
	s := new(big.Rat).SetFrac(lcm, g)
	if den.lead(order).coeff.Sign() < 0 {
		s.Neg(s)
	}
	return num.scale(s), den.scale(s)
}

// ============================================================
// Univariate helpers (dense, ascending coefficients)
// ============================================================

// upoly is a dense univariate polynomial; upoly[k] is the coefficient of t^k.
type upoly []*big.Rat

func (p upoly) trim() upoly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

func (p upoly) deg() int { return len(p.trim()) - 1 }

func (p upoly) eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, p[i])
	}
	return acc
}

// divmod performs polynomial long division p = q*d + r.
func (p upoly) divmod(d upoly) (q, r upoly) {
	d = d.trim()
	r = make(upoly, len(p))
	for i := range p {
		r[i] = new(big.Rat).Set(p[i])
	}
	r = r.trim()
	dd := len(d) - 1
	if len(r)-1 < dd {
		return upoly{}, r
	}
	q = make(upoly, len(r)-dd)
	for i := range q {
		q[i] = new(big.Rat)
	}
	lc := d[dd]
	for len(r)-1 >= dd && len(r) > 0 {
		k := len(r) - 1 - dd
		c := new(big.Rat).Quo(r[len(r)-1], lc)
		q[k] = c
		for i := 0; i <= dd; i++ {
			r[i+k] = new(big.Rat).Sub(r[i+k], new(big.Rat).Mul(c, d[i]))
		}
		r = r.trim()
	}
	return q.trim(), r
}

// divLinear divides p by (t - root), which must be a factor.
func (p upoly) divLinear(root *big.Rat) upoly {
	q, _ := p.divmod(upoly{new(big.Rat).Neg(root), big.NewRat(1, 1)})
	return q
}

// shift returns the coefficients of p(t + a).
func (p upoly) shift(a *big.Rat) upoly {
	out := make(upoly, len(p))
	for i := range out {
		out[i] = new(big.Rat)
	}
	// Horner in the shifted basis.
	for i := len(p) - 1; i >= 0; i-- {
		for j := len(out) - 1; j > 0; j-- {
			out[j] = new(big.Rat).Add(new(big.Rat).Mul(out[j], a), out[j-1])
		}
		out[0] = new(big.Rat).Add(new(big.Rat).Mul(out[0], a), p[i])
	}
	return out
}

// seriesQuo returns the first n coefficients of the power series a/b, with
// b[0] != 0.
func seriesQuo(a, b upoly, n int) upoly {
	at := func(p upoly, i int) *big.Rat {
		if i < len(p) {
			return p[i]
		}
		return new(big.Rat)
	}
	out := make(upoly, n)
	for k := 0; k < n; k++ {
		s := new(big.Rat).Set(at(a, k))
		for j := 1; j <= k; j++ {
			s.Sub(s, new(big.Rat).Mul(at(b, j), out[k-j]))
		}
		out[k] = s.Quo(s, b[0])
	}
	return out
}

// maxRootSearch bounds the integers whose divisors are enumerated when
// looking for rational roots.
const maxRootSearch = 1_000_000

// rationalRoots returns the rational roots of p with multiplicities, and the
// cofactor left after dividing them out.
func rationalRoots(p upoly) (roots []*big.Rat, mult []int, rest upoly, ok bool) {
	p = p.trim()
	// Scale to integer coefficients.
	lcm := big.NewInt(1)
	for _, c := range p {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	rest = make(upoly, len(p))
	for i, c := range p {
		rest[i] = new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
	}
	addRoot := func(r *big.Rat) {
		for i, ex := range roots {
			if ex.Cmp(r) == 0 {
				mult[i]++
				return
			}
		}
		roots = append(roots, r)
		mult = append(mult, 1)
	}
	for rest.deg() > 0 && rest[0].Sign() == 0 {
		addRoot(new(big.Rat))
		rest = rest[1:]
	}
	for rest.deg() > 0 {
		a0 := new(big.Int).Abs(rest[0].Num())
		an := new(big.Int).Abs(rest[rest.deg()].Num())
		if !a0.IsInt64() || !an.IsInt64() || a0.Int64() > maxRootSearch || an.Int64() > maxRootSearch {
			return nil, nil, nil, false
		}
		found := false
		for _, pn := range divisors(a0.Int64()) {
			for _, qd := range divisors(an.Int64()) {
				for _, sign := range []int64{1, -1} {
					r := big.NewRat(sign*pn, qd)
					if rest.eval(r).Sign() == 0 {
						addRoot(r)
						rest = rest.divLinear(r)
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
	}
	// Undo the integer scaling on the cofactor.
	for i := range rest {
		rest[i] = new(big.Rat).Quo(rest[i], new(big.Rat).SetInt(lcm))
	}
	return roots, mult, rest, true
}

func divisors(n int64) []int64 {
	var out []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d == 0 {
			out = append(out, d)
			if d*d != n {
				out = append(out, n/d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
