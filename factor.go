package exactode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/exactode/symbolic"
)

// factorOutcome is the tagged result of the integrating-factor search.
type factorOutcome struct {
	found    bool
	variable string        // SymX or SymY
	q        symbolic.Expr // the accepted one-variable quotient
	mu       symbolic.Expr
}

// findFactor tries μ(x) from (My - Nx)/N, then μ(y) from (Nx - My)/M. The
// y candidate is only evaluated when the x candidate is rejected. An
// accepted candidate whose integral has no closed form ends the search.
func (s *Solver) findFactor(m, n, my, nx symbolic.Expr) factorOutcome {
	if q, ok := s.candidate(s.engine.Sub(my, nx), n, SymY); ok {
		return s.factorFrom(q, SymX)
	}
	if q, ok := s.candidate(s.engine.Sub(nx, my), m, SymX); ok {
		return s.factorFrom(q, SymY)
	}
	return factorOutcome{}
}

// candidate simplifies num/den and accepts it when excluded is not free in
// the result.
func (s *Solver) candidate(num, den symbolic.Expr, excluded string) (symbolic.Expr, bool) {
	q, err := s.engine.Quo(num, den)
	if err != nil {
		s.logger.Debug("factor candidate rejected", zap.String("excluded", excluded), zap.Error(err))
		return nil, false
	}
	if q, err = s.engine.Simplify(q); err != nil {
		s.logger.Debug("factor candidate rejected", zap.String("excluded", excluded), zap.Error(err))
		return nil, false
	}
	if _, dep := s.engine.FreeSymbols(q)[excluded]; dep {
		s.logger.Debug("factor candidate rejected",
			zap.String("excluded", excluded),
			zap.String("candidate", s.engine.Plain(q)))
		return nil, false
	}
	return q, true
}

// factorFrom builds μ = exp(∫ q dv).
func (s *Solver) factorFrom(q symbolic.Expr, v string) factorOutcome {
	integral, err := s.engine.Integrate(q, v)
	if err != nil {
		s.logger.Debug("factor integral failed", zap.String("var", v), zap.Error(err))
		return factorOutcome{}
	}
	mu, err := s.engine.Simplify(s.engine.Exp(integral))
	if err != nil {
		s.logger.Debug("factor simplification failed", zap.String("var", v), zap.Error(err))
		return factorOutcome{}
	}
	s.logger.Debug("integrating factor",
		zap.String("var", v),
		zap.String("quotient", s.engine.Plain(q)),
		zap.String("mu", s.engine.Plain(mu)))
	return factorOutcome{found: true, variable: v, q: q, mu: mu}
}

// applyFactor narrates μ and returns the exact pair (μM, μN).
func (s *Solver) applyFactor(m, n symbolic.Expr, f factorOutcome, log *stepLog) (symbolic.Expr, symbolic.Expr, error) {
	text := textFactorX
	if f.variable == SymY {
		text = textFactorY
	}
	log.add(titleFactor, fmt.Sprintf(text, s.engine.Render(f.q)), fmt.Sprintf(formulaFactor, s.engine.Render(f.mu)))

	em, err := s.engine.Simplify(s.engine.Mul(m, f.mu))
	if err != nil {
		return nil, nil, err
	}
	en, err := s.engine.Simplify(s.engine.Mul(n, f.mu))
	if err != nil {
		return nil, nil, err
	}
	log.add(titleNewExact, textNewExact, fmt.Sprintf(formulaNewExact, s.engine.Render(em), s.engine.Render(en)))
	return em, en, nil
}
