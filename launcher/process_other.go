//go:build !unix && !windows

package launcher

import "syscall"

func detachedAttrs() *syscall.SysProcAttr {
	return nil
}
