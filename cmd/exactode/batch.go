package main

import (
	"github.com/spf13/cobra"

	"github.com/njchilds90/exactode/internal/batch"
	"github.com/njchilds90/exactode/internal/render"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Solve every equation in a YAML batch file",
		Long: `Solve every equation listed in a YAML file of the form

  equations:
    - name: trig
      m: y*cos(x) + 2*x*exp(y)
      n: sin(x) + x^2*exp(y) - 1

Results are printed in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := batch.ReadFile(args[0])
			if err != nil {
				return err
			}
			runner := batch.NewRunner(a.solver, a.cfg.Batch.Concurrency, a.logger)
			items, err := runner.Run(cmd.Context(), f.Equations)
			if err != nil {
				return err
			}

			docs := make([]render.Document, len(items))
			unsolved := false
			for i, it := range items {
				docs[i] = render.NewDocument(it.Equation.Label(i), it.Equation.M, it.Equation.N, it.Result)
				unsolved = unsolved || !it.Result.Solved()
			}
			if err := render.WriteAll(cmd.OutOrStdout(), a.format(), docs); err != nil {
				return err
			}
			if unsolved {
				return errUnsolved
			}
			return nil
		},
	}
	cmd.Flags().Int("concurrency", 0, "equations solved at once (default from batch.concurrency)")
	_ = a.v.BindPFlag("batch.concurrency", cmd.Flags().Lookup("concurrency"))
	return cmd
}
