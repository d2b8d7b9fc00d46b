//go:build !windows

package main

func isLaunchedFromExplorer() bool {
	return false
}
