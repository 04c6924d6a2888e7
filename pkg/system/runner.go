// Package system runs the external package managers and services the installer drives.
package system

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Command is an external program invocation
type Command struct {
	Name string
	Args []string
	// Stdin is piped to the process when non-empty
	Stdin   string
	Timeout time.Duration
	// Interactive attaches the terminal so sudo can prompt and progress is visible
	Interactive bool
	Env         map[string]string
	Dir         string
}

// Cmd builds a Command from a name and arguments
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) WithTimeout(d time.Duration) Command {
	c.Timeout = d
	return c
}

func (c Command) WithStdin(stdin string) Command {
	c.Stdin = stdin
	return c
}

func (c Command) WithDir(dir string) Command {
	c.Dir = dir
	return c
}

// String returns the command line as it would be typed in a shell
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of running a Command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// OK reports whether the command ran and exited with status 0
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Error returns an error describing the failure, or nil when the command succeeded
func (r Result) Error(cmd Command) error {
	if r.OK() {
		return nil
	}
	msg := fmt.Sprintf("%s failed", cmd.String())
	if r.ExitCode != 0 {
		msg += fmt.Sprintf(" with exit code %d", r.ExitCode)
	}
	if stderr := strings.TrimSpace(r.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	if r.Err != nil {
		return fmt.Errorf("%s: %w", msg, r.Err)
	}
	return fmt.Errorf("%s", msg)
}

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
	LookPath(name string) (string, error)
}

// Has reports whether name is on PATH
func Has(r Runner, name string) bool {
	_, err := r.LookPath(name)
	return err == nil
}
