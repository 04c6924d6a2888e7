package cmd

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const maxSuggestionDistance = 2

// suggestFlag returns the closest known long flag name to the unknown flag in err
func suggestFlag(flags *pflag.FlagSet, err error) string {
	name, ok := strings.CutPrefix(err.Error(), "unknown flag: --")
	if !ok {
		return ""
	}

	best, bestDistance := "", maxSuggestionDistance+1
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		if d := levenshtein.ComputeDistance(name, f.Name); d < bestDistance {
			best, bestDistance = f.Name, d
		}
	})
	return best
}

// flagError prints usage and wraps unknown flag errors with a suggestion
func flagError(cmd *cobra.Command, err error) error {
	_ = cmd.Usage()
	if suggestion := suggestFlag(cmd.Flags(), err); suggestion != "" {
		return fmt.Errorf("%w, did you mean --%s?", err, suggestion)
	}
	return err
}
