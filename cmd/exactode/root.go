package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/njchilds90/exactode"
	"github.com/njchilds90/exactode/internal/config"
	"github.com/njchilds90/exactode/internal/logging"
	"github.com/njchilds90/exactode/internal/render"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errUnsolved makes the process exit non-zero after the trail was printed.
var errUnsolved = errors.New("no solution")

// app carries state shared by the subcommands after PersistentPreRunE.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
	solver  *exactode.Solver
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "exactode",
		Short: "Solve exact first-order ODEs step by step",
		Long: `exactode solves M(x,y) dx + N(x,y) dy = 0 by the method of exact
equations. When the equation is not exact it looks for an integrating
factor depending only on x or only on y. Every solve prints the full
derivation, narrated in Spanish with LaTeX formulas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./exactode.yaml or $HOME/.config/exactode/exactode.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("dev", false, "human-readable development logging")
	pf.StringP("format", "o", "", "output format: text, markdown, json, yaml")
	_ = a.v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.development", pf.Lookup("dev"))
	_ = a.v.BindPFlag("output.format", pf.Lookup("format"))

	root.AddCommand(
		newSolveCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.solver = exactode.New(exactode.WithLogger(logger))
	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", zap.String("file", used))
	}
	return nil
}

func (a *app) format() render.Format {
	// Validate already restricted output.format to the known formats.
	f, _ := render.ParseFormat(a.cfg.Output.Format)
	return f
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "exactode %s\n", version)
		},
	}
}
