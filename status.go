package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lukasolson.net/pylauncher/bundle"
	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/gpuenv"
	"lukasolson.net/pylauncher/launcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the runtime state without changing anything",
	RunE:  runStatus,
}

type statusInfo struct {
	BaseDir     string        `json:"baseDir"`
	RuntimeDir  string        `json:"runtimeDir"`
	State       string        `json:"state"`
	Interpreter string        `json:"interpreter,omitempty"`
	Manifest    string        `json:"manifest"`
	Packages    int           `json:"packages"`
	EntryPoint  string        `json:"entryPoint"`
	EntryExists bool          `json:"entryExists"`
	Bundle      bool          `json:"bundle"`
	GPU         gpuenv.Result `json:"gpu"`
}

func init() {
	statusCmd.Flags().BoolVar(&jsonReport, "json", false, "print status as JSON")
}

func collectStatus() statusInfo {
	info := statusInfo{
		BaseDir:     layout.BaseDir,
		RuntimeDir:  layout.RuntimeDir,
		State:       layout.State().String(),
		Manifest:    layout.Manifest,
		Packages:    -1,
		EntryPoint:  layout.EntryPoint,
		EntryExists: common.IsFile(layout.EntryPoint),
	}

	if interpreter, err := layout.Interpreter(); err == nil {
		info.Interpreter = interpreter
	}
	if m, err := launcher.ReadManifest(layout.Manifest); err == nil {
		info.Packages = len(m.Packages)
	}

	embedded, err := bundle.OpenEmbedded(logger)
	if err == nil {
		info.Bundle = true
		embedded.Close()
	} else if !errors.Is(err, bundle.ErrNoBundle) {
		logger.Debug("Could not read embedded bundle", "err", err)
	}

	if settings.GPU.Probe {
		info.GPU = gpuenv.NewProber(settings.GPU.CUDARoots, settings.GPU.CUDNNRoots).Probe()
	}
	return info
}

func runStatus(cmd *cobra.Command, args []string) error {
	info := collectStatus()
	if jsonReport {
		printJSON(cmd.OutOrStdout(), info)
		return nil
	}

	w := cmd.OutOrStdout()
	PrintHeader(w)
	printStatus(w, info)
	return nil
}

func printStatus(w io.Writer, info statusInfo) {
	row := func(label, value string) {
		fmt.Fprintln(w, LabelStyle.Render(label)+value)
	}

	state := WarningStyle.Render(info.State)
	if info.State == launcher.Ready.String() {
		state = SuccessStyle.Render(info.State)
	}

	row("Base", info.BaseDir)
	row("Runtime", info.RuntimeDir)
	row("State", state)

	if info.Interpreter != "" {
		row("Interpreter", info.Interpreter)
	} else {
		row("Interpreter", SubtitleStyle.Render("none"))
	}

	switch {
	case info.Packages < 0:
		row("Manifest", info.Manifest+WarningStyle.Render(" (missing)"))
	default:
		row("Manifest", fmt.Sprintf("%s (%d packages)", info.Manifest, info.Packages))
	}

	if info.EntryExists {
		row("Entry point", info.EntryPoint)
	} else {
		row("Entry point", info.EntryPoint+ErrorStyle.Render(" (missing)"))
	}

	row("Bundle", fmt.Sprintf("%t", info.Bundle))

	if info.GPU.CUDA != nil {
		row("CUDA", fmt.Sprintf("%s (%s)", info.GPU.CUDA.Version, info.GPU.CUDA.Bin))
	}
	if info.GPU.CUDNN != nil {
		row("cuDNN", fmt.Sprintf("%s (%s)", info.GPU.CUDNN.Version, info.GPU.CUDNN.Bin))
	}
}
