package process

import "testing"

// Real process-group termination is exercised by the printer integration
// tests; unit tests only use pids that cannot hit a live process.
func TestKillProcessGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pid  int
	}{
		{"zero pid is ignored", 0},
		{"negative pid is ignored", -42},
		{"nonexistent pid", 999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if KillProcessGroup(tt.pid) {
				t.Errorf("KillProcessGroup(%d) = true, want false", tt.pid)
			}
		})
	}
}
