package nmcli

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/netman"
)

type runFunc func(ctx context.Context, tool string, args ...string) (string, error)

type runner struct {
	log hubprov.Logger
}

// run executes tool and waits for it within ctx's deadline. On deadline the
// whole process group is killed; nmcli forks helpers and a plain kill of the
// leader can leave them holding the interface.
func (r *runner) run(ctx context.Context, tool string, args ...string) (string, error) {
	if _, err := exec.LookPath(tool); err != nil {
		return "", &netman.ToolUnavailableError{Tool: tool}
	}

	cmd := exec.Command(tool, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	r.log.Debugf("exec: %s %s", tool, strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "start %s", tool)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil {
			r.log.Warnf("kill process group %d: %v", cmd.Process.Pid, err)
		}
		<-done
		return buf.String(), &netman.TimeoutError{Op: tool + " " + strings.Join(args, " ")}
	case err := <-done:
		if err != nil {
			msg := failureMessage(buf.String())
			if msg == "" {
				msg = err.Error()
			}
			return buf.String(), errors.New(msg)
		}
	}

	return buf.String(), nil
}

// failureMessage extracts the most useful line from failed tool output,
// preferring nmcli's "Error: ..." line.
func failureMessage(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "Error:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "Error:"))
		}
	}
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
