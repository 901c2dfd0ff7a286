package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jacoelho/yang"
	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/config"
	"github.com/jacoelho/yang/internal/dump"
)

type app struct {
	provider config.Provider
	stdout   io.Writer
	stderr   io.Writer

	configPath string
	logLevel   string
	features   []string
	format     string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "yanglint",
		Short: "Check YANG modules and print their effective schema",
		Long: `yanglint builds a set of YANG modules together, resolving imports,
includes, groupings, augments and deviations, and reports the first
phase in which the build could not progress.

A directory argument contributes every .yang file directly inside it.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is ./yanglint.{yaml,toml,json})")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringArrayVar(&a.features, "feature", nil, "supported feature as module:feature (repeatable; default all)")

	dumpCmd := &cobra.Command{
		Use:   "dump FILE...",
		Short: "Dump the effective model as YAML, TOML or JSON",
		Args:  requireFiles,
		RunE:  a.runDump,
	}
	dumpCmd.Flags().StringVar(&a.format, "format", "", "output format: yaml, toml or json")

	root.AddCommand(
		&cobra.Command{
			Use:   "check FILE...",
			Short: "Build the modules and report errors",
			Args:  requireFiles,
			RunE:  a.runCheck,
		},
		&cobra.Command{
			Use:   "tree FILE...",
			Short: "Print the effective schema tree",
			Args:  requireFiles,
			RunE:  a.runTree,
		},
		dumpCmd,
	)
	return root
}

func requireFiles(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usageError(errors.New("at least one YANG file or directory is required"))
	}
	return nil
}

// setup loads the configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	opts := config.LoadOptions{
		ConfigFilePath: a.configPath,
		LogLevel:       a.logLevel,
		Format:         a.format,
		Features:       a.features,
		FeaturesSet:    cmd.Flags().Changed("feature"),
	}
	cfg, err := a.provider.Load(cmd.Context(), opts)
	if err != nil {
		return usageError(err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return usageError(fmt.Errorf("log level: %w", err))
	}
	handler := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "yanglint",
		Level:  level,
	})
	a.cfg = cfg
	a.logger = slog.New(handler)
	if cfg.Source != "" {
		a.logger.Debug("loaded config", "path", cfg.Source)
	}
	return nil
}

func (a *app) buildOptions() yang.BuildOptions {
	opts := yang.NewBuildOptions().
		WithLogger(a.logger).
		WithStrictVersion(a.cfg.StrictVersion)
	if !a.cfg.AllFeatures {
		opts = opts.WithSupportedFeatures(a.cfg.Features...)
	}
	return opts
}

// build reports a failed build on stderr and returns a silent exit error.
func (a *app) build(cmd *cobra.Command, paths []string) (*yang.SchemaContext, error) {
	sc, err := yang.BuildFiles(cmd.Context(), a.buildOptions(), paths...)
	if err == nil {
		stats := sc.Stats()
		a.logger.Debug("build finished",
			"build_id", sc.BuildID(),
			"modules", len(sc.Modules()),
			"statements", stats.Statements,
			"swept", stats.Swept,
			"rounds", stats.Rounds)
		return sc, nil
	}
	re, ok := yangerrors.AsReactor(err)
	if !ok {
		return nil, err
	}
	for _, cause := range re.All() {
		if err := writeln(a.stderr, cause.Error()); err != nil {
			return nil, err
		}
	}
	if re.Source != "" {
		if err := writef(a.stderr, "build failed in phase %s at source %s\n", re.Phase, re.Source); err != nil {
			return nil, err
		}
	} else if err := writef(a.stderr, "build failed in phase %s\n", re.Phase); err != nil {
		return nil, err
	}
	return nil, &exitError{code: 1}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	sc, err := a.build(cmd, args)
	if err != nil {
		return err
	}
	return writef(a.stdout, "%d modules OK\n", len(sc.Modules()))
}

func (a *app) runTree(cmd *cobra.Command, args []string) error {
	sc, err := a.build(cmd, args)
	if err != nil {
		return err
	}
	return dump.Tree(a.stdout, sc.Modules())
}

func (a *app) runDump(cmd *cobra.Command, args []string) error {
	format, err := dump.ParseFormat(a.cfg.Format)
	if err != nil {
		return usageError(err)
	}
	sc, err := a.build(cmd, args)
	if err != nil {
		return err
	}
	return dump.Encode(a.stdout, format, dump.NewDocument(sc.Modules()))
}
