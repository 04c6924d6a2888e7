// Package setup prepares the host for USB smartcard readers.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

type Setup struct {
	cfg      *config.Config
	elevator *system.Elevator
	packages *system.Packages
}

func New(cfg *config.Config, elevator *system.Elevator, packages *system.Packages) *Setup {
	return &Setup{cfg: cfg, elevator: elevator, packages: packages}
}

// BlacklistContent returns the modprobe configuration that keeps the kernel NFC
// drivers from claiming the reader
func BlacklistContent(modules []string) string {
	var b strings.Builder
	for _, m := range modules {
		fmt.Fprintf(&b, "blacklist %s\n", m)
	}
	return b.String()
}

// Run installs the PC/SC stack, blacklists the NFC modules and starts the smartcard service
func (s *Setup) Run(ctx context.Context) error {
	if err := s.packages.InstallDependencies(ctx); err != nil {
		var unknown *types.ErrUnknownPackageManager
		if !errors.As(err, &unknown) {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
		logger.Warnf("%v", unknown)
	}

	if err := s.WriteBlacklist(ctx); err != nil {
		return err
	}
	logger.Infof("Blacklisted %s in %s", strings.Join(s.cfg.NFCModules, ", "), s.cfg.NFCBlacklistFile)

	unload := system.Cmd("modprobe", append([]string{"-r"}, s.unloadOrder()...)...)
	if err := s.elevator.Exec(ctx, unload); err != nil {
		logger.Warnf("Could not unload NFC modules, reboot to apply the blacklist: %v", err)
	}

	if s.cfg.Service != "" {
		if err := s.elevator.Exec(ctx, system.Cmd("systemctl", "enable", "--now", s.cfg.Service)); err != nil {
			logger.Warnf("Could not enable %s: %v", s.cfg.Service, err)
		}
	}
	return nil
}

// unloadOrder lists modules with dependents first, nfc_unload_order when configured
func (s *Setup) unloadOrder() []string {
	if len(s.cfg.NFCUnloadOrder) > 0 {
		return s.cfg.NFCUnloadOrder
	}
	return s.cfg.NFCModules
}

// WriteBlacklist writes the modprobe blacklist file, through sudo tee when not root
func (s *Setup) WriteBlacklist(ctx context.Context) error {
	path := s.cfg.NFCBlacklistFile
	content := BlacklistContent(s.cfg.NFCModules)

	if s.elevator.IsRoot() {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}

	if err := s.elevator.Exec(ctx, system.Cmd("tee", path).WithStdin(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
