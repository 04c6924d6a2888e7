package system

import (
	"bytes"
	"context"
	"errors"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
)

// ExecRunner runs commands on the host
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return osexec.LookPath(name)
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) Result {
	logger.V(2).Infof("Running: %s", cmd.String())
	if cmd.Interactive || cmd.Stdin != "" {
		return r.runAttached(ctx, cmd)
	}
	return r.runCaptured(ctx, cmd)
}

// runCaptured executes through clicky and captures stdout and stderr
func (r *ExecRunner) runCaptured(ctx context.Context, cmd Command) Result {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1, Err: err}
	}

	process := clicky.Exec(cmd.Name, cmd.Args...)
	if timeout := effectiveTimeout(ctx, cmd.Timeout); timeout > 0 {
		process = process.WithTimeout(timeout)
	}
	if cmd.Dir != "" {
		process = process.WithCwd(cmd.Dir)
	}
	if len(cmd.Env) > 0 {
		process = process.WithEnv(cmd.Env)
	}

	result := process.Run()
	res := Result{
		Stdout:   result.GetStdout(),
		Stderr:   result.GetStderr(),
		ExitCode: result.ExitCode(),
		Err:      result.Err,
	}
	if res.Err != nil && res.ExitCode == 0 {
		res.ExitCode = -1
	}
	return res
}

// runAttached executes with the terminal attached so privileged commands can prompt for a password.
// When Stdin is set it is piped to the process and stdout is captured instead.
func (r *ExecRunner) runAttached(ctx context.Context, cmd Command) Result {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := osexec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
		c.Stdout = &stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	}

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		res.ExitCode = -1
	}
	return res
}

func effectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return timeout
	}
	remaining := time.Until(deadline)
	if timeout == 0 || remaining < timeout {
		return remaining
	}
	return timeout
}
