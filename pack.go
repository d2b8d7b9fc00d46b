package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lukasolson.net/pylauncher/bundle"
	"lukasolson.net/pylauncher/common"
	"lukasolson.net/pylauncher/launcher"
)

var packOutput string

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Write a copy of the launcher with the runtime attached",
	Long: `Pack archives the provisioned runtime directory and attaches it to a copy
of this executable. The copy restores the runtime on first start instead of
downloading it. Run the launcher once before packing.`,
	Args: cobra.NoArgs,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "output executable (default <name>-bundle next to the launcher)")
}

func defaultPackOutput() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(exe)
	name := strings.TrimSuffix(filepath.Base(exe), ext)
	return filepath.Join(layout.BaseDir, name+"-bundle"+ext), nil
}

func runPack(cmd *cobra.Command, args []string) error {
	if layout.State() != launcher.Ready {
		return fmt.Errorf("runtime %s is not provisioned yet, run %s first", layout.RuntimeDir, common.AppName)
	}

	output := packOutput
	if output == "" {
		var err error
		if output, err = defaultPackOutput(); err != nil {
			return err
		}
	}

	if err := bundle.Pack(cmd.Context(), bundle.PackOptions{
		RuntimeDir: layout.RuntimeDir,
		Output:     output,
		Logger:     logger,
	}); err != nil {
		return err
	}

	hash, err := common.Md5SumFile(output)
	if err != nil {
		return err
	}
	logger.Info("Wrote bundle", "path", output, "md5", hash)
	return nil
}
