package cmd

import (
	"strconv"

	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/spf13/pflag"
)

// action is what a single invocation does. Action flags are mutually exclusive,
// the first one given on the command line wins.
type action string

const (
	actionAuto      action = ""
	actionPip       action = "pip"
	actionSnap      action = "snap"
	actionDeb       action = "deb"
	actionRpm       action = "rpm"
	actionUpdate    action = "update"
	actionUninstall action = "uninstall"
	actionVersions  action = "versions"
	actionStatus    action = "status"
	actionSetup     action = "setup"
)

// strategy returns the install channel for the explicit install actions
func (a action) strategy() (types.Strategy, bool) {
	switch a {
	case actionPip:
		return types.StrategyNativePip, true
	case actionSnap:
		return types.StrategySnap, true
	case actionDeb:
		return types.StrategyDebian, true
	case actionRpm:
		return types.StrategyRpmOrPip, true
	}
	return types.StrategyNone, false
}

// actionFlag is a boolean flag that records its action in the order flags are parsed
type actionFlag struct {
	value  action
	parsed *[]action
	set    bool
}

func (f *actionFlag) String() string {
	return strconv.FormatBool(f.set)
}

func (f *actionFlag) Set(s string) error {
	enabled, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.set = enabled
	if enabled {
		*f.parsed = append(*f.parsed, f.value)
	}
	return nil
}

func (f *actionFlag) Type() string {
	return "bool"
}

type actionFlagDef struct {
	names []string
	value action
	usage string
}

var actionFlagDefs = []actionFlagDef{
	{names: []string{"native", "pip"}, value: actionPip, usage: "Install with pip and the system package manager"},
	{names: []string{"snap"}, value: actionSnap, usage: "Install from the Snap store"},
	{names: []string{"deb"}, value: actionDeb, usage: "Install the pre-built Debian package, falls back to pip when it cannot be downloaded"},
	{names: []string{"rpm"}, value: actionRpm, usage: "Install dependencies with dnf/yum/zypper/pacman and the tool with pip"},
	{names: []string{"update"}, value: actionUpdate, usage: "Update the existing installation"},
	{names: []string{"uninstall", "remove"}, value: actionUninstall, usage: "Remove the tool from every channel it is installed through"},
	{names: []string{"version", "check"}, value: actionVersions, usage: "Show installed and latest versions"},
	{names: []string{"status"}, value: actionStatus, usage: "Show smartcard service, installation and card reader status"},
	{names: []string{"setup"}, value: actionSetup, usage: "Install PC/SC dependencies and blacklist conflicting NFC kernel modules"},
}

// bindActionFlags registers every action flag on flags, appending to parsed as they are seen
func bindActionFlags(flags *pflag.FlagSet, parsed *[]action) {
	for _, def := range actionFlagDefs {
		for _, name := range def.names {
			flags.VarPF(&actionFlag{value: def.value, parsed: parsed}, name, "", def.usage).NoOptDefVal = "true"
		}
	}
}

// selectedAction returns the first action given, or actionAuto when there is none
func selectedAction(parsed []action) action {
	if len(parsed) == 0 {
		return actionAuto
	}
	return parsed[0]
}
