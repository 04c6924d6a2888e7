package types

import (
	"sort"
)

// VersionReport lists the installed version per channel and the latest published version
type VersionReport struct {
	// Installed only contains channels where the tool was found
	Installed map[Strategy]string `json:"installed"`
	// Latest is empty when the package index could not be reached
	Latest string `json:"latest,omitempty"`
}

// Channels returns the installed channels in detection priority order
func (r VersionReport) Channels() []Strategy {
	var channels []Strategy
	for _, s := range Strategies {
		if _, ok := r.Installed[s]; ok {
			channels = append(channels, s)
		}
	}
	return channels
}

// IsInstalled reports whether any channel has the tool installed
func (r VersionReport) IsInstalled() bool {
	return len(r.Installed) > 0
}

// UninstallReport lists the channels the tool was removed from
type UninstallReport struct {
	Removed []Strategy `json:"removed"`
	// Failed maps channels where removal was attempted but failed to the error message
	Failed map[Strategy]string `json:"failed,omitempty"`
}

// Sort orders removed channels by detection priority
func (r *UninstallReport) Sort() {
	rank := map[Strategy]int{}
	for i, s := range Strategies {
		rank[s] = i
	}
	sort.Slice(r.Removed, func(i, j int) bool {
		return rank[r.Removed[i]] < rank[r.Removed[j]]
	})
}

// StatusReport is the combined health view printed by --status
type StatusReport struct {
	Environment   Environment   `json:"environment"`
	ServiceActive bool          `json:"service_active"`
	ServiceState  string        `json:"service_state"`
	Versions      VersionReport `json:"versions"`
	// Interfaces holds the snap device-access connections, only populated when snap is in use
	Interfaces []string `json:"interfaces,omitempty"`
	Readers    []string `json:"readers,omitempty"`
	// ReaderScanError is set when the card reader scan failed or timed out
	ReaderScanError string `json:"reader_scan_error,omitempty"`
}
