//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking the
// browser's helper processes down with it. Reports whether the signal was
// delivered. Non-positive pids are ignored: -0 would target our own group.
func KillProcessGroup(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(-pid, syscall.SIGKILL) == nil
}
