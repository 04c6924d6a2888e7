package release

import (
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// DefaultTag is used for distributions without a dedicated build
const DefaultTag = "ubuntu-22.04"

var published = map[string][]string{
	"ubuntu": {"20.04", "22.04", "24.04"},
	"debian": {"11", "12"},
}

// Tag returns the OS release tag the Debian package was built for.
// A non-empty pin always wins. Unknown combinations use DefaultTag with a warning.
func Tag(env types.Environment, pin string) string {
	if pin != "" {
		return pin
	}
	for _, v := range published[env.OSID] {
		if v == env.OSVersionID {
			return fmt.Sprintf("%s-%s", env.OSID, v)
		}
	}
	logger.Warnf("No Debian package is published for %s %s, using the %s build", env.OSID, env.OSVersionID, DefaultTag)
	return DefaultTag
}
