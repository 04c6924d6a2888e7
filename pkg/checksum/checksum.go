package checksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// HashType represents the hash algorithms published for release artifacts
type HashType string

const (
	HashTypeSHA256 HashType = "sha256"
	HashTypeSHA512 HashType = "sha512"
)

// DetectHashType detects the hash type from an optional "type:" prefix or the hex length
func DetectHashType(checksum string) HashType {
	checksum = strings.TrimSpace(checksum)
	if prefix, _, ok := strings.Cut(checksum, ":"); ok {
		switch strings.ToLower(prefix) {
		case "sha512":
			return HashTypeSHA512
		case "sha256":
			return HashTypeSHA256
		}
	}
	if len(checksum) == 128 {
		return HashTypeSHA512
	}
	return HashTypeSHA256
}

// ParseChecksum splits a checksum into its lower-cased hex value and hash type
func ParseChecksum(checksum string) (value string, hashType HashType) {
	hashType = DetectHashType(checksum)
	value = strings.TrimSpace(checksum)
	if _, v, ok := strings.Cut(value, ":"); ok {
		value = strings.TrimSpace(v)
	}
	return strings.ToLower(value), hashType
}

// CreateHasher creates the hash.Hash for the given type
func CreateHasher(hashType HashType) (hash.Hash, error) {
	switch hashType {
	case HashTypeSHA256:
		return sha256.New(), nil
	case HashTypeSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash type: %s", hashType)
	}
}

// CalculateFileChecksum returns the hex digest of the file at path
func CalculateFileChecksum(path string, hashType HashType) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	hasher, err := CreateHasher(hashType)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Verify compares the digest of path against expected.
// An empty expected value skips verification and only records the computed digest.
// On mismatch the file is deleted and ErrChecksumMismatch is returned.
func Verify(path, expected string) (types.ChecksumRecord, error) {
	value, hashType := ParseChecksum(expected)
	record := types.ChecksumRecord{Expected: value, File: filepath.Base(path), Skipped: value == ""}

	actual, err := CalculateFileChecksum(path, hashType)
	if err != nil {
		return record, err
	}
	record.Actual = actual

	if record.Skipped {
		logger.Warnf("No checksum available for %s, skipping verification", record.File)
		return record, nil
	}

	if actual != value {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("Failed to remove %s after checksum mismatch: %v", path, err)
		}
		return record, &types.ErrChecksumMismatch{Expected: value, Actual: actual, File: record.File}
	}

	logger.V(2).Infof("Checksum verified for %s (%s)", record.File, hashType)
	return record, nil
}

// manifestLine matches "checksum  filename" and "checksum *filename"
var manifestLine = regexp.MustCompile(`^([a-fA-F0-9]{64}|[a-fA-F0-9]{128})\s+\*?(.+)$`)

// ParseManifest reads a SHA256SUMS style manifest into filename -> checksum
func ParseManifest(r io.Reader) (map[string]string, error) {
	checksums := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		matches := manifestLine.FindStringSubmatch(line)
		if len(matches) != 3 {
			continue
		}
		name := filepath.Base(strings.TrimSpace(matches[2]))
		checksums[name] = strings.ToLower(matches[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading checksum manifest: %w", err)
	}
	return checksums, nil
}

// FetchManifest downloads and parses the checksum manifest at url
func FetchManifest(ctx context.Context, client *http.Client, url string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download checksum manifest %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checksum manifest not found at %s: status %d", url, resp.StatusCode)
	}
	return ParseManifest(resp.Body)
}

// Lookup returns the expected checksum for filename from the manifest at url.
// An unreachable manifest or missing entry yields an empty checksum and a warning.
func Lookup(ctx context.Context, client *http.Client, url, filename string) string {
	manifest, err := FetchManifest(ctx, client, url)
	if err != nil {
		logger.Warnf("Checksum manifest unavailable, %s will not be verified: %v", filename, err)
		return ""
	}
	sum, ok := manifest[filename]
	if !ok {
		logger.Warnf("%s has no entry in %s", filename, url)
		return ""
	}
	return sum
}
