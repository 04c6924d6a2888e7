package system

import (
	"context"

	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// Elevator runs commands that need root, prefixing them with sudo when the user is not root
type Elevator struct {
	runner     Runner
	isRoot     bool
	canElevate bool
}

func NewElevator(runner Runner, env types.Environment) *Elevator {
	return &Elevator{runner: runner, isRoot: env.IsRoot, canElevate: env.CanElevate}
}

// IsRoot reports whether commands already run as root
func (e *Elevator) IsRoot() bool {
	return e.isRoot
}

// Command returns cmd wrapped with sudo when needed
func (e *Elevator) Command(cmd Command) (Command, error) {
	if e.isRoot {
		return cmd, nil
	}
	if !e.canElevate {
		return cmd, &types.ErrMissingElevationTool{Command: cmd.String()}
	}
	wrapped := cmd
	wrapped.Name = "sudo"
	wrapped.Args = append([]string{cmd.Name}, cmd.Args...)
	if cmd.Stdin == "" {
		wrapped.Interactive = true
	}
	return wrapped, nil
}

// Run executes cmd with elevated privileges
func (e *Elevator) Run(ctx context.Context, cmd Command) Result {
	wrapped, err := e.Command(cmd)
	if err != nil {
		return Result{ExitCode: -1, Err: err}
	}
	return e.runner.Run(ctx, wrapped)
}

// Exec runs cmd elevated and returns an error when it fails
func (e *Elevator) Exec(ctx context.Context, cmd Command) error {
	wrapped, err := e.Command(cmd)
	if err != nil {
		return err
	}
	return e.runner.Run(ctx, wrapped).Error(wrapped)
}
