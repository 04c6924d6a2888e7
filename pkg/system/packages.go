package system

import (
	"context"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// dependencies are the smartcard and Python build prerequisites per package manager
var dependencies = map[types.PackageManager][]string{
	types.PackageManagerApt: {
		"pcscd", "libpcsclite-dev", "libpcsclite1", "pcsc-tools",
		"python3", "python3-pip", "python3-venv", "python3-dev", "swig", "build-essential",
	},
	types.PackageManagerDnf: {
		"pcsc-lite", "pcsc-lite-devel", "pcsc-tools",
		"python3", "python3-pip", "python3-devel", "swig", "gcc", "gcc-c++", "make",
	},
	types.PackageManagerPacman: {
		"pcsclite", "ccid", "pcsc-tools", "python", "python-pip", "swig", "base-devel",
	},
	types.PackageManagerZypper: {
		"pcsc-lite", "pcsc-lite-devel", "pcsc-tools",
		"python3", "python3-pip", "python3-devel", "swig", "gcc", "gcc-c++", "make",
	},
}

func init() {
	dependencies[types.PackageManagerYum] = dependencies[types.PackageManagerDnf]
}

// Dependencies returns the system packages the tool needs on the given package manager
func Dependencies(pm types.PackageManager) []string {
	return dependencies[pm]
}

// InstallCommands returns the commands that install pkgs, in order
func InstallCommands(pm types.PackageManager, pkgs ...string) ([]Command, error) {
	switch pm {
	case types.PackageManagerApt:
		return []Command{
			Cmd("apt-get", "update"),
			Cmd("apt-get", append([]string{"install", "-y"}, pkgs...)...),
		}, nil
	case types.PackageManagerDnf, types.PackageManagerYum:
		return []Command{Cmd(string(pm), append([]string{"install", "-y"}, pkgs...)...)}, nil
	case types.PackageManagerPacman:
		return []Command{Cmd("pacman", append([]string{"-Sy", "--noconfirm", "--needed"}, pkgs...)...)}, nil
	case types.PackageManagerZypper:
		return []Command{Cmd("zypper", append([]string{"--non-interactive", "install"}, pkgs...)...)}, nil
	default:
		return nil, &types.ErrUnknownPackageManager{Packages: pkgs}
	}
}

// RemoveCommand returns the command that removes pkg
func RemoveCommand(pm types.PackageManager, pkg string) (Command, error) {
	switch pm {
	case types.PackageManagerApt:
		return Cmd("apt-get", "remove", "-y", pkg), nil
	case types.PackageManagerDnf, types.PackageManagerYum:
		return Cmd(string(pm), "remove", "-y", pkg), nil
	case types.PackageManagerPacman:
		return Cmd("pacman", "-R", "--noconfirm", pkg), nil
	case types.PackageManagerZypper:
		return Cmd("zypper", "--non-interactive", "remove", pkg), nil
	default:
		return Command{}, &types.ErrUnknownPackageManager{Packages: []string{pkg}}
	}
}

// UpgradeCommand returns the command that upgrades an installed pkg
func UpgradeCommand(pm types.PackageManager, pkg string) (Command, error) {
	switch pm {
	case types.PackageManagerApt:
		return Cmd("apt-get", "install", "--only-upgrade", "-y", pkg), nil
	case types.PackageManagerDnf, types.PackageManagerYum:
		return Cmd(string(pm), "upgrade", "-y", pkg), nil
	case types.PackageManagerPacman:
		return Cmd("pacman", "-S", "--noconfirm", pkg), nil
	case types.PackageManagerZypper:
		return Cmd("zypper", "--non-interactive", "update", pkg), nil
	default:
		return Command{}, &types.ErrUnknownPackageManager{Packages: []string{pkg}}
	}
}

// Packages drives the host package manager with elevated privileges
type Packages struct {
	pm       types.PackageManager
	elevator *Elevator
}

func NewPackages(pm types.PackageManager, elevator *Elevator) *Packages {
	return &Packages{pm: pm, elevator: elevator}
}

func (p *Packages) Manager() types.PackageManager {
	return p.pm
}

// Install installs pkgs, returning ErrUnknownPackageManager when the host has no supported manager
func (p *Packages) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	cmds, err := InstallCommands(p.pm, pkgs...)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		logger.Infof("Running %s", cmd.String())
		if err := p.elevator.Exec(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// InstallDependencies installs the prerequisites for building and running the tool
func (p *Packages) InstallDependencies(ctx context.Context) error {
	deps := Dependencies(p.pm)
	if len(deps) == 0 {
		return &types.ErrUnknownPackageManager{Packages: Dependencies(types.PackageManagerApt)}
	}
	return p.Install(ctx, deps...)
}

func (p *Packages) Remove(ctx context.Context, pkg string) error {
	cmd, err := RemoveCommand(p.pm, pkg)
	if err != nil {
		return err
	}
	return p.elevator.Exec(ctx, cmd)
}

func (p *Packages) Upgrade(ctx context.Context, pkg string) error {
	cmd, err := UpgradeCommand(p.pm, pkg)
	if err != nil {
		return err
	}
	return p.elevator.Exec(ctx, cmd)
}
