package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogPath returns a clean path for logging, relative to the working directory when shorter
func LogPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || len(rel) > len(abs) {
		return abs
	}
	return rel
}

// FormatBytes formats bytes into human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// ShortenURL removes the scheme and collapses long paths for logging
func ShortenURL(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	if len(url) > 60 {
		parts := strings.Split(url, "/")
		if len(parts) > 2 {
			return fmt.Sprintf("%s/.../%s", parts[0], parts[len(parts)-1])
		}
	}
	return url
}
