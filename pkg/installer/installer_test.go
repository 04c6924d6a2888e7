package installer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flanksource/cryptnox-installer/mock"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/release"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInstaller(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Installer Suite")
}

const debContent = "debian package contents"

type fakeLocator struct {
	checksumURL string
}

func (f *fakeLocator) Locate(ctx context.Context, env types.Environment, version string) (*release.Artifact, error) {
	name := fmt.Sprintf("cryptnox-cli_%s_%s_ubuntu-22.04.deb", version, env.Arch)
	return &release.Artifact{
		Filename:    name,
		URL:         "https://releases.invalid/" + name,
		ChecksumURL: f.checksumURL,
		Tag:         "ubuntu-22.04",
	}, nil
}

type fakeFetcher struct {
	fail       bool
	downloaded []string
}

func (f *fakeFetcher) Download(ctx context.Context, url, dest string) error {
	if f.fail {
		return &types.ErrDownloadFailed{URL: url, StatusCode: http.StatusNotFound}
	}
	f.downloaded = append(f.downloaded, dest)
	return os.WriteFile(dest, []byte(debContent), 0644)
}

var _ = Describe("Executor", func() {
	var (
		ctx     context.Context
		cfg     *config.Config
		runner  *mock.Runner
		env     types.Environment
		fetcher *fakeFetcher
		locator *fakeLocator
	)

	newExecutor := func() *Executor {
		return New(env, cfg, runner,
			WithHTTPClient(http.DefaultClient),
			WithLocator(locator),
			WithFetcher(fetcher))
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cfg, err = config.LoadDefaultConfig()
		Expect(err).ToNot(HaveOccurred())
		cfg.TmpDir = GinkgoT().TempDir()

		runner = mock.NewRunner().WithPath("python3", "systemctl", "cryptnox")
		env = types.Environment{
			OSID:           "ubuntu",
			OSVersionID:    "22.04",
			Arch:           "amd64",
			PackageManager: types.PackageManagerApt,
			IsRoot:         true,
			CanElevate:     true,
		}
		fetcher = &fakeFetcher{}
		locator = &fakeLocator{}
	})

	Describe("Snap", func() {
		It("should install the snap and connect interfaces", func() {
			runner.WithPath("snap")
			outcome, err := newExecutor().Execute(ctx, types.StrategySnap, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
			Expect(outcome.Channel).To(Equal(types.StrategySnap))
			Expect(runner.Calls()).To(Equal([]string{
				"snap install cryptnox-cli",
				"snap connect cryptnox-cli:raw-usb",
				"snap connect cryptnox-cli:hardware-observe",
			}))
		})

		It("should tolerate interface connection failures", func() {
			runner.WithPath("snap").OnFail("snap connect", 1)
			outcome, err := newExecutor().Execute(ctx, types.StrategySnap, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
		})

		It("should bootstrap snapd through the package manager", func() {
			_, err := newExecutor().Execute(ctx, types.StrategySnap, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Ran("apt-get install -y snapd")).To(BeTrue())
			Expect(runner.Index("systemctl enable --now snapd.socket")).To(BeNumerically("<", runner.Index("snap install")))
		})

		It("should fail to bootstrap without a package manager", func() {
			env.PackageManager = types.PackageManagerUnknown
			_, err := newExecutor().Execute(ctx, types.StrategySnap, "1.0.3")
			var bootstrap *types.ErrCannotBootstrapSnap
			Expect(errors.As(err, &bootstrap)).To(BeTrue())
			Expect(runner.Ran("snap install")).To(BeFalse())
		})

		It("should prefix privileged commands with sudo", func() {
			env.IsRoot = false
			runner.WithPath("snap")
			_, err := newExecutor().Execute(ctx, types.StrategySnap, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Calls()[0]).To(Equal("sudo snap install cryptnox-cli"))
		})
	})

	Describe("Debian package", func() {
		It("should require apt", func() {
			env.PackageManager = types.PackageManagerDnf
			_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			var wrong *types.ErrWrongPackageManager
			Expect(errors.As(err, &wrong)).To(BeTrue())
			Expect(wrong.Actual).To(Equal(types.PackageManagerDnf))
			Expect(runner.Calls()).To(BeEmpty())
		})

		It("should install the downloaded package and remove it", func() {
			outcome, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome).To(Equal(types.Outcome{
				Requested: types.StrategyDebian,
				Channel:   types.StrategyDebian,
				Success:   true,
				Version:   "1.0.3",
			}))

			Expect(fetcher.downloaded).To(HaveLen(1))
			Expect(runner.Ran("dpkg -i " + fetcher.downloaded[0])).To(BeTrue())
			Expect(runner.Ran("apt-get install -f -y")).To(BeFalse())
			Expect(runner.Ran("python3 -m pip install --upgrade --break-system-packages cryptnox-sdk-py")).To(BeTrue())
			Expect(runner.Ran("systemctl enable --now pcscd")).To(BeTrue())
			Expect(fetcher.downloaded[0]).ToNot(BeAnExistingFile())
		})

		It("should keep the downloaded package when asked", func() {
			executor := New(env, cfg, runner,
				WithHTTPClient(http.DefaultClient),
				WithLocator(locator),
				WithFetcher(fetcher),
				WithKeepArtifacts(true))
			_, err := executor.Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(fetcher.downloaded).To(HaveLen(1))
			Expect(fetcher.downloaded[0]).To(BeAnExistingFile())
		})

		It("should install dependencies before downloading", func() {
			_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Index("apt-get install -y pcscd")).To(BeNumerically("<", runner.Index("dpkg -i")))
		})

		It("should repair missing dependencies when dpkg fails", func() {
			runner.OnFail("dpkg -i", 1)
			_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Ran("apt-get install -f -y")).To(BeTrue())
		})

		It("should fail when the repair fails", func() {
			runner.OnFail("dpkg -i", 1).OnFail("apt-get install -f", 100)
			_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			var failed *types.ErrPackageInstallFailed
			Expect(errors.As(err, &failed)).To(BeTrue())
			Expect(failed.Attempts).To(HaveLen(2))
		})

		It("should tolerate python dependency failures", func() {
			runner.OnFail("python3 -m pip", 1)
			outcome, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
		})

		It("should fall back to pip when the download fails", func() {
			fetcher.fail = true
			outcome, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Requested).To(Equal(types.StrategyDebian))
			Expect(outcome.Channel).To(Equal(types.StrategyNativePip))
			Expect(outcome.Fallback).To(Equal(types.StrategyNativePip))
			Expect(outcome.FellBack()).To(BeTrue())
			Expect(outcome.Success).To(BeTrue())
			Expect(runner.Ran("python3 -m pip install --upgrade --break-system-packages cryptnox-cli==1.0.3")).To(BeTrue())
			Expect(runner.Ran("dpkg")).To(BeFalse())
		})

		Context("with a checksum manifest", func() {
			var server *httptest.Server
			var manifest string

			BeforeEach(func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, manifest)
				}))
				DeferCleanup(server.Close)
				locator.checksumURL = server.URL + "/SHA256SUMS"
			})

			It("should install when the checksum matches", func() {
				manifest = fmt.Sprintf("%x  cryptnox-cli_1.0.3_amd64_ubuntu-22.04.deb\n", sha256.Sum256([]byte(debContent)))
				_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
				Expect(err).ToNot(HaveOccurred())
				Expect(runner.Ran("dpkg -i")).To(BeTrue())
			})

			It("should abort and delete the artifact on mismatch", func() {
				manifest = strings.Repeat("0", 64) + "  cryptnox-cli_1.0.3_amd64_ubuntu-22.04.deb\n"
				_, err := newExecutor().Execute(ctx, types.StrategyDebian, "1.0.3")
				var mismatch *types.ErrChecksumMismatch
				Expect(errors.As(err, &mismatch)).To(BeTrue())
				Expect(runner.Ran("dpkg")).To(BeFalse())
				Expect(filepath.Join(cfg.TmpDir, "cryptnox-cli_1.0.3_amd64_ubuntu-22.04.deb")).ToNot(BeAnExistingFile())
			})
		})
	})

	Describe("pip", func() {
		It("should install dependencies with the detected manager", func() {
			env.OSID = "fedora"
			env.PackageManager = types.PackageManagerDnf
			outcome, err := newExecutor().Execute(ctx, types.StrategyRpmOrPip, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Channel).To(Equal(types.StrategyRpmOrPip))
			Expect(runner.Ran("dnf install -y pcsc-lite")).To(BeTrue())
			Expect(runner.Index("dnf install")).To(BeNumerically("<", runner.Index("python3 -m pip")))
		})

		It("should try the variant without the override flag", func() {
			runner.OnFail("python3 -m pip install --upgrade --break-system-packages", 1)
			_, err := newExecutor().Execute(ctx, types.StrategyNativePip, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(runner.Ran("python3 -m pip install --upgrade cryptnox-cli==1.0.3")).To(BeTrue())
		})

		It("should fail when both variants fail", func() {
			runner.OnFail("python3 -m pip", 1)
			outcome, err := newExecutor().Execute(ctx, types.StrategyNativePip, "1.0.3")
			var failed *types.ErrPackageInstallFailed
			Expect(errors.As(err, &failed)).To(BeTrue())
			Expect(failed.Attempts).To(HaveLen(2))
			Expect(outcome.Success).To(BeFalse())
		})

		It("should continue without a known package manager", func() {
			env.PackageManager = types.PackageManagerUnknown
			outcome, err := newExecutor().Execute(ctx, types.StrategyNativePip, "1.0.3")
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Success).To(BeTrue())
		})

		It("should install into the user site when not root", func() {
			env.IsRoot = false
			cmds := newExecutor().PipCommands("cryptnox-cli==1.0.3")
			Expect(cmds).To(HaveLen(2))
			Expect(cmds[0].String()).To(Equal("python3 -m pip install --user --upgrade --break-system-packages cryptnox-cli==1.0.3"))
			Expect(cmds[1].String()).To(Equal("python3 -m pip install --user --upgrade cryptnox-cli==1.0.3"))
		})
	})

	It("should reject unknown strategies", func() {
		_, err := newExecutor().Execute(ctx, types.Strategy("flatpak"), "1.0.3")
		Expect(err).To(MatchError(ContainSubstring("unknown installation strategy")))
	})
})
