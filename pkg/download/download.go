package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/utils"
	"github.com/schollz/progressbar/v3"
)

// Downloader fetches release artifacts to local files
type Downloader struct {
	client   *http.Client
	progress io.Writer
}

// Option configures a Downloader
type Option func(*Downloader)

// WithProgressWriter sets where the progress bar is drawn, nil disables it
func WithProgressWriter(w io.Writer) Option {
	return func(d *Downloader) {
		d.progress = w
	}
}

func New(client *http.Client, opts ...Option) *Downloader {
	d := &Downloader{client: client, progress: os.Stderr}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download writes url to dest. Every failure is returned as *types.ErrDownloadFailed
// and leaves no partial file behind.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return &types.ErrDownloadFailed{URL: url, Err: fmt.Errorf("failed to create destination directory: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.ErrDownloadFailed{URL: url, Err: err}
	}

	logger.Infof("Downloading %s", utils.ShortenURL(url))
	resp, err := d.client.Do(req)
	if err != nil {
		return &types.ErrDownloadFailed{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &types.ErrDownloadFailed{URL: url, StatusCode: resp.StatusCode}
	}

	partial := dest + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return &types.ErrDownloadFailed{URL: url, Err: fmt.Errorf("failed to create %s: %w", partial, err)}
	}

	var writer io.Writer = out
	var bar *progressbar.ProgressBar
	if d.progress != nil {
		bar = progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", filepath.Base(dest))),
			progressbar.OptionSetWriter(d.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(d.progress, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
		)
		writer = io.MultiWriter(out, bar)
	}

	size, err := io.Copy(writer, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if bar != nil {
			_ = bar.Clear()
		}
		os.Remove(partial)
		return &types.ErrDownloadFailed{URL: url, Err: err}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return &types.ErrDownloadFailed{URL: url, Err: err}
	}

	logger.V(2).Infof("Downloaded %s to %s", utils.FormatBytes(size), utils.LogPath(dest))
	return nil
}
