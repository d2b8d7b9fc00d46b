package launcher

import (
	"fmt"
	"os/exec"
)

// ProcessStarter starts a process and returns without waiting for it.
type ProcessStarter interface {
	Start(command string, args []string, dir string, env []string) (int, error)
}

// DetachedStarter spawns the child in its own session or process group
// with no inherited stdio. The launcher may exit immediately afterwards;
// the child's lifetime is independent of it.
type DetachedStarter struct{}

func (DetachedStarter) Start(command string, args []string, dir string, env []string) (int, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.SysProcAttr = detachedAttrs()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", command, err)
	}

	pid := cmd.Process.Pid
	// Nobody will Wait on the child; drop our handle to it.
	_ = cmd.Process.Release()
	return pid, nil
}
