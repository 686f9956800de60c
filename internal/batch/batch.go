// Package batch solves lists of equations read from YAML files.
//
// A batch file looks like:
//
//	equations:
//	  - name: trig
//	    m: y*cos(x) + 2*x*exp(y)
//	    n: sin(x) + x^2*exp(y) - 1
//	  - m: y
//	    n: x
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/exactode"
)

// ErrEmpty is returned for a batch file without equations.
var ErrEmpty = errors.New("batch has no equations")

// Equation is one M dx + N dy = 0 entry.
type Equation struct {
	Name string `yaml:"name,omitempty"`
	M    string `yaml:"m"`
	N    string `yaml:"n"`
}

// File is the on-disk batch format.
type File struct {
	Equations []Equation `yaml:"equations"`
}

// Item pairs an equation with its result.
type Item struct {
	Equation Equation
	Result   exactode.Result
	Elapsed  time.Duration
}

// Read decodes a batch from r. Unknown keys are rejected.
func Read(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadFile decodes the batch file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer fh.Close()
	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate requires at least one equation and both coefficients on each.
func (f *File) Validate() error {
	if len(f.Equations) == 0 {
		return ErrEmpty
	}
	for i, eq := range f.Equations {
		if eq.M == "" || eq.N == "" {
			return fmt.Errorf("equation %d (%s): m and n are required", i+1, eq.Label(i))
		}
	}
	return nil
}

// Label returns the equation name, or a positional name when unnamed.
func (eq Equation) Label(i int) string {
	if eq.Name != "" {
		return eq.Name
	}
	return fmt.Sprintf("#%d", i+1)
}

// Runner solves equations concurrently with a bounded number of workers.
type Runner struct {
	solver      *exactode.Solver
	concurrency int
	logger      *zap.Logger
}

// NewRunner returns a Runner. A concurrency below one means one worker.
func NewRunner(solver *exactode.Solver, concurrency int, logger *zap.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{solver: solver, concurrency: concurrency, logger: logger}
}

// Run solves every equation and returns the items in input order. It stops
// scheduling new work once ctx is done and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, eqs []Equation) ([]Item, error) {
	items := make([]Item, len(eqs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)

	for i, eq := range eqs {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := r.solver.Solve(eq.M, eq.N)
			items[i] = Item{Equation: eq, Result: res, Elapsed: time.Since(start)}
			r.logger.Debug("batch equation solved",
				zap.String("equation", eq.Label(i)),
				zap.Bool("solved", res.Solved()),
				zap.Duration("elapsed", items[i].Elapsed))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	solved := 0
	for _, it := range items {
		if it.Result.Solved() {
			solved++
		}
	}
	r.logger.Info("batch finished", zap.Int("equations", len(items)), zap.Int("solved", solved))
	return items, nil
}
