package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"lukasolson.net/pylauncher/bundle"
	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/gpuenv"
	"lukasolson.net/pylauncher/launcher"
	"lukasolson.net/pylauncher/pythonPreparer"
)

var (
	// Version is set via -ldflags.
	Version = "dev"

	baseDir    string
	cfgFile    string
	logLevel   string
	strict     bool
	jsonReport bool

	// Populated by PersistentPreRunE and shared with all subcommands.
	settings *common.Settings
	logger   *log.Logger
	layout   launcher.Layout
)

var rootCmd = &cobra.Command{
	Use:   common.AppName,
	Short: "Bootstrap a local Python runtime and start the application",
	Long: TitleStyle.Render(common.AppName) + SubtitleStyle.Render(" - Python runtime bootstrapper") + `

On first start the launcher downloads an embeddable Python distribution into
runtime/<platform> next to itself, enables site imports, and installs pip.
Every start then upgrades pip, installs requirements.txt and starts main.py
as a detached process.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runLauncher,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base", "", "base directory (default is the executable's directory)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is launcher.json in the base directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "abort at the first failed step")
	rootCmd.Flags().BoolVar(&jsonReport, "json", false, "print the step report as JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute is the entry point called by main.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		// A double-clicked launcher would close its console before the
		// error could be read.
		if isLaunchedFromExplorer() {
			common.PressButtonToContinue(os.Stdin, os.Stdout, "Press enter to exit...")
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	logger = common.NewLogger(cmd.ErrOrStderr(), logLevel)

	if baseDir == "" {
		dir, err := launcher.ExecutableDir()
		if err != nil {
			return err
		}
		baseDir = dir
	}

	var err error
	settings, err = common.LoadSettings(baseDir, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// --log-level takes precedence over the config file.
	if !cmd.Flags().Changed("log-level") && settings.Log.Level != "" {
		logger = common.NewLogger(cmd.ErrOrStderr(), settings.Log.Level)
	}
	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		settings.Strict = strict
	}

	layout = launcher.NewLayout(baseDir, settings)
	return nil
}

func newLauncher() *launcher.Launcher {
	runner := common.NewExecRunner(layout.BaseDir, logger)
	fetcher := common.NewHTTPFetcher(settings.Download.Timeout, settings.Download.Retries, logger)

	l := &launcher.Launcher{
		Layout:   layout,
		Preparer: pythonPreparer.NewPreparer(settings, layout.RuntimeDir, layout.ConsolePython, fetcher, runner, logger),
		Runner:   runner,
		Starter:  launcher.DetachedStarter{},
		Logger:   logger,
		ChildEnv: settings.Launch.Env,
		Strict:   settings.Strict,
	}

	if settings.GPU.Probe {
		prober := gpuenv.NewProber(settings.GPU.CUDARoots, settings.GPU.CUDNNRoots)
		l.ProbeGPU = prober.Probe
	}
	return l
}

func runLauncher(cmd *cobra.Command, args []string) error {
	l := newLauncher()

	if layout.State() == launcher.NeedsBootstrap {
		embedded, err := bundle.OpenEmbedded(logger)
		switch {
		case err == nil:
			defer embedded.Close()
			l.Bundle = embedded
			logger.Info("Using embedded runtime bundle")
		case !errors.Is(err, bundle.ErrNoBundle):
			logger.Debug("Could not read embedded bundle", "err", err)
		}
	}

	report, err := l.Run(cmd.Context())
	if report != nil {
		if jsonReport {
			printJSON(cmd.OutOrStdout(), report)
		} else {
			printReport(cmd.OutOrStdout(), report)
		}
	}
	return err
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
	}
}

func printReport(w io.Writer, report *launcher.Report) {
	for _, s := range report.Steps {
		var mark string
		switch s.Status {
		case launcher.StatusOK:
			mark = SuccessStyle.Render("✓")
		case launcher.StatusSkipped:
			mark = WarningStyle.Render("-")
		default:
			mark = ErrorStyle.Render("✗")
		}

		line := fmt.Sprintf("%s %s", mark, s.Name)
		if s.Error != "" {
			line += SubtitleStyle.Render(": " + s.Error)
		}
		fmt.Fprintln(w, line)
	}
}
