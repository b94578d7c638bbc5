// Package keepawake keeps the machine from sleeping during a long capture
// run. It is best-effort: if no inhibitor utility is available, capture
// proceeds without one.
package keepawake

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Start launches an OS sleep inhibitor scoped to ctx. It never fails the
// caller; on unsupported platforms or missing utilities it logs and returns.
func Start(ctx context.Context, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		// -i: prevent idle sleep; -w: for the lifetime of our process.
		cmd = exec.CommandContext(ctx, "caffeinate", "-i", "-w", strconv.Itoa(os.Getpid()))
	case "linux":
		cmd = exec.CommandContext(ctx, "systemd-inhibit",
			"--what=idle:sleep", "--who=chatvault", "--why=capture run in progress",
			"sleep", "infinity")
	default:
		logger.Debug("keep-awake not supported on this platform", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Debug("keep-awake unavailable", "err", err)
		return
	}
	logger.Debug("keep-awake guard running", "pid", cmd.Process.Pid)

	go func() {
		// Reap the inhibitor when ctx cancels it.
		_ = cmd.Wait()
	}()
}
