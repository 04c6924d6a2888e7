package lifecycle_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/flanksource/cryptnox-installer/mock"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/installer"
	"github.com/flanksource/cryptnox-installer/pkg/lifecycle"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/version"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLifecycle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Lifecycle Suite")
}

type latest string

func (l latest) LatestVersion(ctx context.Context) (string, error) {
	return string(l), nil
}

const snapList = `Name          Version  Rev  Tracking       Publisher  Notes
cryptnox-cli  1.0.3    12   latest/stable  cryptnox   -
`

const pipShow = `Name: cryptnox-cli
Version: 1.0.2
Summary: Command line tool for Cryptnox cards
`

var _ = Describe("Reporter", func() {
	var (
		ctx    context.Context
		cfg    *config.Config
		runner *mock.Runner
		env    types.Environment
	)

	newReporter := func() *lifecycle.Reporter {
		executor := installer.New(env, cfg, runner, installer.WithHTTPClient(http.DefaultClient))
		return lifecycle.New(cfg, runner, executor, version.NewResolver(latest("1.0.4"), cfg.DefaultVersion))
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cfg, err = config.LoadDefaultConfig()
		Expect(err).ToNot(HaveOccurred())
		runner = mock.NewRunner().WithPath("python3", "systemctl", "cryptnox")
		env = types.Environment{
			OSID:           "ubuntu",
			OSVersionID:    "22.04",
			Arch:           "amd64",
			PackageManager: types.PackageManagerApt,
			IsRoot:         true,
			CanElevate:     true,
		}
	})

	Describe("Versions", func() {
		It("should report every channel the tool is installed through", func() {
			runner.WithPath("snap", "dpkg-query").
				OnOutput("snap list", snapList).
				OnOutput("dpkg-query -W", "1.0.3-1").
				OnOutput("python3 -m pip show", pipShow)

			report := newReporter().Versions(ctx)
			Expect(report.Installed).To(Equal(map[types.Strategy]string{
				types.StrategySnap:      "1.0.3",
				types.StrategyDebian:    "1.0.3",
				types.StrategyNativePip: "1.0.2",
			}))
			Expect(report.Latest).To(Equal("1.0.4"))
			Expect(lifecycle.ActiveChannel(report)).To(Equal(types.StrategySnap))
		})

		It("should omit channels that are not installed", func() {
			runner.WithPath("snap", "dpkg-query", "rpm").
				OnFail("snap list", 1).
				OnFail("dpkg-query", 1).
				OnOutput("rpm -q", "package cryptnox-cli is not installed")

			report := newReporter().Versions(ctx)
			Expect(report.Installed).To(BeEmpty())
			Expect(report.IsInstalled()).To(BeFalse())
			Expect(lifecycle.ActiveChannel(report)).To(Equal(types.StrategyNone))
		})

		It("should not report the Debian package's module as a pip installation", func() {
			runner.WithPath("dpkg-query").
				OnOutput("dpkg-query -W", "1.0.3").
				OnOutput("python3 -m pip show", "Name: cryptnox-cli\nVersion: 1.0.3\nLocation: /usr/lib/python3/dist-packages\n")

			report := newReporter().Versions(ctx)
			Expect(report.Installed).To(Equal(map[types.Strategy]string{types.StrategyDebian: "1.0.3"}))
		})

		It("should report user site-packages as a pip installation", func() {
			runner.OnOutput("python3 -m pip show", "Name: cryptnox-cli\nVersion: 1.0.2\nLocation: /home/user/.local/lib/python3.10/site-packages\n")
			Expect(newReporter().Versions(ctx).Installed).To(HaveKeyWithValue(types.StrategyNativePip, "1.0.2"))
		})

		It("should read the rpm version", func() {
			runner.WithPath("rpm").OnOutput("rpm -q --qf %{VERSION} cryptnox-cli", "1.0.3")
			Expect(newReporter().Versions(ctx).Installed).To(HaveKeyWithValue(types.StrategyRpmOrPip, "1.0.3"))
		})
	})

	Describe("ActiveChannel", func() {
		DescribeTable("should follow the channel priority",
			func(installed map[types.Strategy]string, expected types.Strategy) {
				Expect(lifecycle.ActiveChannel(types.VersionReport{Installed: installed})).To(Equal(expected))
			},
			Entry("snap over deb", map[types.Strategy]string{types.StrategyDebian: "1", types.StrategySnap: "1"}, types.StrategySnap),
			Entry("deb over rpm", map[types.Strategy]string{types.StrategyRpmOrPip: "1", types.StrategyDebian: "1"}, types.StrategyDebian),
			Entry("rpm over pip", map[types.Strategy]string{types.StrategyNativePip: "1", types.StrategyRpmOrPip: "1"}, types.StrategyRpmOrPip),
			Entry("pip only", map[types.Strategy]string{types.StrategyNativePip: "1"}, types.StrategyNativePip),
			Entry("nothing", map[types.Strategy]string{}, types.StrategyNone),
		)
	})

	Describe("Update", func() {
		It("should refresh the snap", func() {
			runner.WithPath("snap").OnOutput("snap list", snapList)
			outcome, err := newReporter().Update(ctx, "1.0.4")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Channel).To(Equal(types.StrategySnap))
			Expect(runner.Ran("snap refresh cryptnox-cli")).To(BeTrue())
		})

		It("should upgrade pip installations", func() {
			runner.OnOutput("python3 -m pip show", pipShow)
			outcome, err := newReporter().Update(ctx, "1.0.4")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
			Expect(runner.Ran("python3 -m pip install --upgrade --break-system-packages cryptnox-cli==1.0.4")).To(BeTrue())
		})

		It("should skip installations that are up to date", func() {
			runner.OnOutput("python3 -m pip show", pipShow)
			outcome, err := newReporter().Update(ctx, "1.0.2")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
			Expect(runner.Ran("python3 -m pip install")).To(BeFalse())
		})

		It("should upgrade rpm installations through the package manager", func() {
			env.PackageManager = types.PackageManagerDnf
			runner.WithPath("rpm").OnOutput("rpm -q", "1.0.3")
			_, err := newReporter().Update(ctx, "1.0.4")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Ran("dnf upgrade -y cryptnox-cli")).To(BeTrue())
		})

		It("should install when nothing is installed", func() {
			env.OSID = "arch"
			env.PackageManager = types.PackageManagerPacman
			outcome, err := newReporter().Update(ctx, "1.0.4")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Channel).To(Equal(types.StrategyNativePip))
			Expect(runner.Ran("pacman -Sy --noconfirm --needed")).To(BeTrue())
			Expect(runner.Ran("python3 -m pip install --upgrade --break-system-packages cryptnox-cli==1.0.4")).To(BeTrue())
		})
	})

	Describe("Uninstall", func() {
		BeforeEach(func() {
			runner.WithPath("snap").
				OnOutput("snap list", snapList).
				OnOutput("python3 -m pip show", pipShow).
				OnRun(func(ctx context.Context, cmd system.Command) {
					switch cmd.String() {
					case "snap remove cryptnox-cli":
						runner.OnFail("snap list", 1)
					case "python3 -m pip uninstall -y --break-system-packages cryptnox-cli":
						runner.OnFail("python3 -m pip show", 1)
					}
				})
		})

		It("should remove every channel and be idempotent", func() {
			reporter := newReporter()

			first := reporter.Uninstall(ctx)
			Expect(first.Removed).To(Equal([]types.Strategy{types.StrategySnap, types.StrategyNativePip}))
			Expect(first.Failed).To(BeEmpty())

			second := reporter.Uninstall(ctx)
			Expect(second.Removed).To(BeEmpty())
			Expect(second.Failed).To(BeEmpty())
			Expect(reporter.Versions(ctx).IsInstalled()).To(BeFalse())
		})

		It("should record channels that could not be removed", func() {
			runner.OnFail("snap remove", 1)
			report := newReporter().Uninstall(ctx)
			Expect(report.Removed).To(Equal([]types.Strategy{types.StrategyNativePip}))
			Expect(report.Failed).To(HaveKey(types.StrategySnap))
		})
	})

	Describe("Status", func() {
		It("should combine service, versions, interfaces and readers", func() {
			runner.WithPath("snap", "pcsc_scan").
				OnOutput("systemctl is-active pcscd", "active\n").
				OnOutput("snap list", snapList).
				OnOutput("snap connections", "Interface  Plug  Slot  Notes\nraw-usb  cryptnox-cli:raw-usb  :raw-usb  manual\nnetwork  cryptnox-cli:network  :network  -\nhardware-observe  cryptnox-cli:hardware-observe  -  -\n").
				OnOutput("pcsc_scan -r", "Using reader plug'n play mechanism\nScanning present readers...\n0: Alcor Micro AU9540 00 00\n1: ACS ACR122U PICC Interface 01 00\n")

			report := newReporter().Status(ctx)
			Expect(report.ServiceActive).To(BeTrue())
			Expect(report.ServiceState).To(Equal("active"))
			Expect(report.Versions.Installed).To(HaveKey(types.StrategySnap))
			Expect(report.Interfaces).To(HaveLen(2))
			Expect(report.Readers).To(Equal([]string{"Alcor Micro AU9540 00 00", "ACS ACR122U PICC Interface 01 00"}))
			Expect(report.ReaderScanError).To(BeEmpty())
		})

		It("should report an inactive service", func() {
			runner.On("systemctl is-active", system.Result{Stdout: "inactive\n", ExitCode: 3})
			report := newReporter().Status(ctx)
			Expect(report.ServiceActive).To(BeFalse())
			Expect(report.ServiceState).To(Equal("inactive"))
			Expect(report.Interfaces).To(BeNil())
		})

		It("should finish within the reader scan timeout when the scan hangs", func() {
			cfg.ReaderScanTimeout = config.Duration{Duration: 100 * time.Millisecond}
			runner.WithPath("pcsc_scan").OnRun(func(ctx context.Context, cmd system.Command) {
				if cmd.Name == "pcsc_scan" {
					<-ctx.Done()
				}
			})

			start := time.Now()
			report := newReporter().Status(ctx)
			Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
			Expect(report.Readers).To(BeEmpty())
			Expect(report.ReaderScanError).To(ContainSubstring("timed out"))
		})

		It("should report when no readers are attached", func() {
			runner.WithPath("pcsc_scan").OnOutput("pcsc_scan -r", "Scanning present readers...\n")
			report := newReporter().Status(ctx)
			Expect(report.ReaderScanError).To(Equal("no card readers found"))
		})

		It("should report a missing scanner", func() {
			report := newReporter().Status(ctx)
			Expect(report.ReaderScanError).To(ContainSubstring("pcsc_scan not found"))
		})
	})
})
