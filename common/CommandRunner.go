package common

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// CommandRunner runs a command to completion.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, env []string) error
}

// ExecRunner runs commands with the console attached, the way a batch file
// would, so pip progress is visible to the user.
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

func NewExecRunner(dir string, logger *log.Logger) *ExecRunner {
	return &ExecRunner{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Run executes command. A nil env inherits the launcher's environment.
func (r *ExecRunner) Run(ctx context.Context, command string, args []string, env []string) error {
	cmd := exec.CommandContext(ctx, command, args...)

	cmd.Dir = r.Dir
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if r.Logger != nil {
		r.Logger.Debug("Running command", "cmd", cmd.String())
	}
	return cmd.Run()
}
