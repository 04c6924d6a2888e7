package platform

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

const (
	OSReleaseFile  = "/etc/os-release"
	LSBReleaseFile = "/etc/lsb-release"
)

// ProbeOptions replaces the host lookups used by Probe
type ProbeOptions struct {
	OSReleasePath  string
	LSBReleasePath string
	// LookPath reports whether an executable is on PATH
	LookPath func(name string) (string, error)
	// Uname returns the output of uname with the given flag (-s, -r, -m)
	Uname func(flag string) (string, error)
	Euid  func() int
}

func (o ProbeOptions) withDefaults() ProbeOptions {
	if o.OSReleasePath == "" {
		o.OSReleasePath = OSReleaseFile
	}
	if o.LSBReleasePath == "" {
		o.LSBReleasePath = LSBReleaseFile
	}
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.Uname == nil {
		o.Uname = uname
	}
	if o.Euid == nil {
		o.Euid = os.Geteuid
	}
	return o
}

func uname(flag string) (string, error) {
	out, err := exec.Command("uname", flag).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Probe inspects the current host. It never fails, missing information is left empty.
func Probe() types.Environment {
	return ProbeWith(ProbeOptions{})
}

// ProbeWith inspects the host using the given lookups
func ProbeWith(opts ProbeOptions) types.Environment {
	opts = opts.withDefaults()

	env := types.Environment{}
	env.OSID, env.OSVersionID, env.OSPrettyName = detectOS(opts)
	env.Arch = detectArch(opts)
	env.PackageManager = detectPackageManager(opts.LookPath)
	env.SnapAvailable = onPath(opts.LookPath, "snap")
	env.IsRoot = opts.Euid() == 0
	env.CanElevate = env.IsRoot || onPath(opts.LookPath, "sudo")

	logger.V(2).Infof("Probed environment: %s", env)
	return env
}

func detectOS(opts ProbeOptions) (id, versionID, pretty string) {
	if kv, err := readKeyValueFile(opts.OSReleasePath); err == nil {
		id = kv["ID"]
		versionID = kv["VERSION_ID"]
		pretty = kv["PRETTY_NAME"]
		if pretty == "" {
			pretty = kv["NAME"]
		}
		if id != "" {
			return strings.ToLower(id), versionID, pretty
		}
	}

	if kv, err := readKeyValueFile(opts.LSBReleasePath); err == nil && kv["DISTRIB_ID"] != "" {
		return strings.ToLower(kv["DISTRIB_ID"]), kv["DISTRIB_RELEASE"], kv["DISTRIB_DESCRIPTION"]
	}

	kernel, err := opts.Uname("-s")
	if err != nil || kernel == "" {
		kernel = runtime.GOOS
	}
	release, _ := opts.Uname("-r")
	pretty = strings.TrimSpace(kernel + " " + release)
	return strings.ToLower(kernel), release, pretty
}

func detectArch(opts ProbeOptions) string {
	machine, err := opts.Uname("-m")
	if err != nil || machine == "" {
		machine = runtime.GOARCH
	}
	return NormalizeArch(machine)
}

// NormalizeArch maps machine names to the architectures release artifacts are published for.
// Anything else is returned unchanged.
func NormalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "x86_64", "amd64":
		return string(types.ArchAMD64)
	case "aarch64", "arm64":
		return string(types.ArchARM64)
	default:
		return arch
	}
}

func detectPackageManager(lookPath func(string) (string, error)) types.PackageManager {
	for _, pm := range types.PackageManagerPriority {
		if onPath(lookPath, pm.Binary()) {
			return pm
		}
	}
	return types.PackageManagerUnknown
}

func onPath(lookPath func(string) (string, error), name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// readKeyValueFile parses shell style KEY=value files such as /etc/os-release
func readKeyValueFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKeyValue(data), nil
}

// ParseKeyValue parses KEY=value lines, stripping surrounding quotes and skipping comments
func ParseKeyValue(data []byte) map[string]string {
	result := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		result[strings.TrimSpace(key)] = value
	}
	return result
}
