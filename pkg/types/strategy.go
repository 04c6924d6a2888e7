package types

// Strategy is one of the mutually exclusive installation channels
type Strategy string

const (
	// StrategyNone marks the absence of a strategy, e.g. when no fallback ran
	StrategyNone      Strategy = ""
	StrategySnap      Strategy = "snap"
	StrategyDebian    Strategy = "deb"
	StrategyRpmOrPip  Strategy = "rpm"
	StrategyNativePip Strategy = "pip"
)

// Strategies lists every channel in the priority used to detect the active installation
var Strategies = []Strategy{StrategySnap, StrategyDebian, StrategyRpmOrPip, StrategyNativePip}

// DisplayName returns a human readable channel name
func (s Strategy) DisplayName() string {
	switch s {
	case StrategySnap:
		return "Snap"
	case StrategyDebian:
		return "Debian package"
	case StrategyRpmOrPip:
		return "RPM/pip"
	case StrategyNativePip:
		return "native pip"
	case StrategyNone:
		return "none"
	default:
		return string(s)
	}
}

func (s Strategy) String() string {
	return s.DisplayName()
}

// Outcome is the result of running an installation strategy
type Outcome struct {
	// Requested is the strategy that was asked for
	Requested Strategy `json:"requested"`
	// Channel is the strategy that actually ran to completion or failure
	Channel Strategy `json:"channel"`
	Success bool     `json:"success"`
	// Fallback is set when Requested failed recoverably and another strategy was tried
	Fallback Strategy `json:"fallback,omitempty"`
	Version  string   `json:"version,omitempty"`
}

// FellBack reports whether an automatic fallback took place
func (o Outcome) FellBack() bool {
	return o.Fallback != StrategyNone
}

// ChecksumRecord holds the expected and computed digest of a downloaded artifact
type ChecksumRecord struct {
	// Expected is empty when no checksum manifest was available
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual"`
	File     string `json:"file"`
	// Skipped is true when verification was not possible because Expected is empty
	Skipped bool `json:"skipped"`
}
