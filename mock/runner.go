package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flanksource/cryptnox-installer/pkg/system"
)

// Runner is a scripted system.Runner that records every command it receives
type Runner struct {
	mu        sync.Mutex
	responses []response
	paths     map[string]bool
	calls     []system.Command
	hook      func(context.Context, system.Command)
}

type response struct {
	prefix string
	result system.Result
}

// NewRunner creates a Runner where every command succeeds with empty output
func NewRunner() *Runner {
	return &Runner{paths: make(map[string]bool)}
}

// WithPath marks executables as present on PATH
func (m *Runner) WithPath(names ...string) *Runner {
	for _, n := range names {
		m.paths[n] = true
	}
	return m
}

// WithoutPath removes executables from PATH
func (m *Runner) WithoutPath(names ...string) *Runner {
	for _, n := range names {
		delete(m.paths, n)
	}
	return m
}

// On sets the result for commands whose command line starts with prefix.
// The longest matching prefix wins, later registrations win ties.
func (m *Runner) On(prefix string, result system.Result) *Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response{prefix: prefix, result: result})
	return m
}

// OnOutput makes commands matching prefix succeed with stdout
func (m *Runner) OnOutput(prefix, stdout string) *Runner {
	return m.On(prefix, system.Result{Stdout: stdout})
}

// OnFail makes commands matching prefix fail with the given exit code
func (m *Runner) OnFail(prefix string, exitCode int) *Runner {
	return m.On(prefix, system.Result{
		ExitCode: exitCode,
		Stderr:   "mock failure",
		Err:      fmt.Errorf("exit status %d", exitCode),
	})
}

// OnRun registers a callback invoked for every command before its result is returned
func (m *Runner) OnRun(hook func(context.Context, system.Command)) *Runner {
	m.hook = hook
	return m
}

func (m *Runner) Run(ctx context.Context, cmd system.Command) system.Result {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	hook := m.hook
	line := cmd.String()
	var best response
	found := false
	for _, r := range m.responses {
		if strings.HasPrefix(line, r.prefix) && (!found || len(r.prefix) >= len(best.prefix)) {
			best, found = r, true
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, cmd)
	}
	if err := ctx.Err(); err != nil {
		return system.Result{ExitCode: -1, Err: err}
	}
	if found {
		return best.result
	}
	return system.Result{}
}

func (m *Runner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paths[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New("executable file not found in $PATH: " + name)
}

// Calls returns the command lines run so far
func (m *Runner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.calls))
	for i, c := range m.calls {
		lines[i] = c.String()
	}
	return lines
}

// Commands returns the commands run so far
func (m *Runner) Commands() []system.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]system.Command(nil), m.calls...)
}

// Ran reports whether a command starting with prefix was run
func (m *Runner) Ran(prefix string) bool {
	for _, line := range m.Calls() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Index returns the position of the first command starting with prefix, or -1
func (m *Runner) Index(prefix string) int {
	for i, line := range m.Calls() {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}
