//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
// Reports whether taskkill succeeded. Non-positive pids are ignored.
func KillProcessGroup(pid int) bool {
	if pid <= 0 {
		return false
	}
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() == nil
}
