package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/njchilds90/exactode/internal/render"
)

func newSolveCmd(a *app) *cobra.Command {
	var m, n string
	cmd := &cobra.Command{
		Use:   "solve [M N]",
		Short: "Solve one equation M dx + N dy = 0",
		Example: `  exactode solve "y*cos(x) + 2*x*exp(y)" "sin(x) + x^2*exp(y) - 1"
  exactode solve --m "x + y" --n 1 -o markdown`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				if m == "" || n == "" {
					return fmt.Errorf("M and N are required, as arguments or with --m and --n")
				}
			case 2:
				if m != "" || n != "" {
					return fmt.Errorf("give M and N either as arguments or as flags, not both")
				}
			default:
				return fmt.Errorf("expected 2 arguments (M N), got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				m, n = args[0], args[1]
			}
			res := a.solver.Solve(m, n)
			if err := render.Write(cmd.OutOrStdout(), a.format(), render.NewDocument("", m, n, res)); err != nil {
				return err
			}
			if !res.Solved() {
				return errUnsolved
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&m, "m", "", "coefficient M(x,y) of dx")
	cmd.Flags().StringVar(&n, "n", "", "coefficient N(x,y) of dy")
	return cmd
}
