// Package pypi reads release metadata from the Python Package Index JSON API.
package pypi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Client queries the JSON document of a single package
type Client struct {
	http *http.Client
	url  string
}

// NewClient creates a client for the package JSON document at url
func NewClient(client *http.Client, url string) *Client {
	return &Client{http: client, url: url}
}

// Distribution is a downloadable file of a release
type Distribution struct {
	Filename    string
	URL         string
	PackageType string
	SHA256      string
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("package index returned status %d for %s", resp.StatusCode, c.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read package index response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("package index returned invalid JSON")
	}
	return body, nil
}

// LatestVersion returns info.version
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	v := gjson.GetBytes(body, "info.version")
	if !v.Exists() || v.String() == "" {
		return "", fmt.Errorf("package index response has no info.version")
	}
	return v.String(), nil
}

// Sdist returns the source distribution of version
func (c *Client) Sdist(ctx context.Context, version string) (*Distribution, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	files := gjson.GetBytes(body, "releases."+escape(version))
	if !files.Exists() {
		if gjson.GetBytes(body, "info.version").String() != version {
			return nil, fmt.Errorf("version %s is not published", version)
		}
		files = gjson.GetBytes(body, "urls")
	}

	sdist := files.Get(`#(packagetype=="sdist")`)
	if !sdist.Exists() {
		return nil, fmt.Errorf("version %s has no source distribution", version)
	}
	return &Distribution{
		Filename:    sdist.Get("filename").String(),
		URL:         sdist.Get("url").String(),
		PackageType: sdist.Get("packagetype").String(),
		SHA256:      sdist.Get("digests.sha256").String(),
	}, nil
}

// Summary returns info.summary, used as the Debian package description
func (c *Client) Summary(ctx context.Context) (string, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "info.summary").String(), nil
}

// escape makes a version usable as a single gjson path component
func escape(component string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(component)
}
