package exactode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/exactode/symbolic"
)

// potential is the tagged result of reconstructing F from an exact pair.
type potential struct {
	raw    symbolic.Expr // ∫ M dx
	gPrime symbolic.Expr
	g      symbolic.Expr
	f      symbolic.Expr // simplified raw + g
}

// reconstruct rebuilds F(x,y) with F_x = M and F_y = N.
func (s *Solver) reconstruct(m, n symbolic.Expr, log *stepLog) (potential, error) {
	raw, err := s.engine.Integrate(m, SymX)
	if err != nil {
		return potential{}, err
	}
	log.add(titleIntegrateM, textIntegrateM, fmt.Sprintf(formulaIntegrateM, s.engine.Render(m), s.engine.Render(raw)))

	dy, err := s.engine.Differentiate(raw, SymY)
	if err != nil {
		return potential{}, err
	}
	gPrime, err := s.engine.Simplify(s.engine.Sub(n, dy))
	if err != nil {
		return potential{}, err
	}
	log.add(titleGPrime, textGPrime, fmt.Sprintf(formulaGPrime, s.engine.Render(gPrime)))
	if _, dep := s.engine.FreeSymbols(gPrime)[SymX]; dep {
		return potential{}, fmt.Errorf("%w: g'(y) = %s", ErrNotExact, s.engine.Plain(gPrime))
	}

	g, err := s.engine.Integrate(gPrime, SymY)
	if err != nil {
		return potential{}, err
	}
	log.add(titleG, textG, fmt.Sprintf(formulaG, s.engine.Render(gPrime), s.engine.Render(g)))

	f, err := s.engine.Simplify(s.engine.Add(raw, g))
	if err != nil {
		return potential{}, err
	}
	log.add(titleSolution, textSolution, s.engine.RenderEquation(f, s.c))
	s.logger.Debug("potential",
		zap.String("F_raw", s.engine.Plain(raw)),
		zap.String("g", s.engine.Plain(g)),
		zap.String("F", s.engine.Plain(f)))
	return potential{raw: raw, gPrime: gPrime, g: g, f: f}, nil
}
