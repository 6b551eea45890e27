// Package shellexec runs external commands for the Exec key-kind. It is
// a deliberately trimmed-down descendant of a more general command-runner:
// layerkbd only ever fires a command fire-and-forget on key press, so
// the richer job-result/timeout/uid machinery a generic executor carries
// has no buyer here.
package shellexec

import (
	"context"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
)

// Runner executes shell commands with a bounded lifetime, logging failures
// instead of returning them: its Run method is handed to layer.Exec as a
// fire-and-forget callback that cannot propagate an error to the engine.
type Runner struct {
	Log     *slog.Logger
	Timeout time.Duration // 0 disables the timeout
}

func New(log *slog.Logger) *Runner {
	return &Runner{Log: log, Timeout: 5 * time.Second}
}

// Run splits command as a shell command line if args is empty (so config
// can write a single "firefox --new-window" string), otherwise execs
// command with args verbatim. It detaches the child into its own process
// group so a timeout kill reaches any grandchildren it spawned.
func (r *Runner) Run(command string, args []string) {
	if command == "" {
		return
	}
	if len(args) == 0 {
		fields, err := shellquote.Split(command)
		if err != nil || len(fields) == 0 {
			if r.Log != nil {
				r.Log.Error("shellexec: cannot parse command line", "command", command, "error", err)
			}
			return
		}
		command, args = fields[0], fields[1:]
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Kill the whole process group, not just the direct child.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if err := cmd.Run(); err != nil {
		if r.Log != nil {
			r.Log.Warn("shellexec: command failed", "command", command, "args", args, "error", err)
		}
	}
}
