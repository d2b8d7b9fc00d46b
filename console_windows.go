//go:build windows

package main

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// parentImage returns the executable path of the parent process.
func parentImage() (string, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(os.Getppid()))
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// isLaunchedFromExplorer reports whether the launcher was double-clicked,
// in which case its console closes as soon as it exits.
func isLaunchedFromExplorer() bool {
	image, err := parentImage()
	if err != nil {
		return false
	}
	return strings.EqualFold(filepath.Base(image), "explorer.exe")
}
