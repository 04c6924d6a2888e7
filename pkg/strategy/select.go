// Package strategy decides which installation channel fits a host.
package strategy

import (
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// Family groups distributions that share a packaging ecosystem
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyRPM     Family = "rpm"
	FamilyArch    Family = "arch"
	FamilySUSE    Family = "suse"
	FamilyUnknown Family = "unknown"
)

var families = map[Family][]string{
	FamilyDebian: {"ubuntu", "debian", "linuxmint", "pop", "elementary", "zorin"},
	FamilyRPM:    {"fedora", "rhel", "centos", "rocky", "alma"},
	FamilyArch:   {"arch", "manjaro", "endeavouros"},
}

// FamilyOf returns the family a distribution id belongs to
func FamilyOf(osID string) Family {
	id := strings.ToLower(osID)
	for family, ids := range families {
		for _, candidate := range ids {
			if id == candidate {
				return family
			}
		}
	}
	if strings.HasPrefix(id, "opensuse") {
		return FamilySUSE
	}
	return FamilyUnknown
}

// Select returns the preferred strategy for the environment
func Select(env types.Environment) types.Strategy {
	s, _ := SelectWithFamily(env)
	return s
}

// SelectWithFamily returns the preferred strategy together with the matched family.
// Snap always wins on a recognised distribution when it is available.
func SelectWithFamily(env types.Environment) (types.Strategy, Family) {
	family := FamilyOf(env.OSID)

	if family == FamilyUnknown {
		logger.Warnf("Unrecognised distribution %q, installing with pip", env.OSID)
		return types.StrategyNativePip, family
	}
	if env.SnapAvailable {
		return types.StrategySnap, family
	}

	switch family {
	case FamilyDebian:
		return types.StrategyDebian, family
	case FamilyRPM:
		return types.StrategyRpmOrPip, family
	default:
		return types.StrategyNativePip, family
	}
}
