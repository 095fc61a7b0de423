// Package catalog loads the ordered media gallery sent during onboarding.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmrelampagos/pagereply/internal/domain"
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".m4v": true, ".avi": true, ".webm": true,
}

// Load builds the media catalog. A manifest file takes precedence; when it
// is missing or empty the local media folder is scanned instead. An empty
// catalog is not an error — onboarding degrades to text-only.
func Load(manifestPath, mediaDir, publicURL string) []domain.MediaDescriptor {
	items, err := fromManifest(manifestPath)
	if err != nil {
		slog.Warn("Could not load media manifest", "path", manifestPath, "error", err)
	}
	if len(items) == 0 && mediaDir != "" {
		items, err = fromFolder(mediaDir, publicURL)
		if err != nil {
			slog.Warn("Could not scan media folder", "dir", mediaDir, "error", err)
		}
	}
	slog.Info("Media catalog loaded", "items", len(items))
	return items
}

// fromManifest reads a JSON array of media URLs, deduplicates them and
// keeps only supported extensions, preserving first-seen order.
func fromManifest(path string) ([]domain.MediaDescriptor, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	seen := make(map[string]bool)
	var items []domain.MediaDescriptor
	for _, u := range urls {
		if u == "" || seen[u] || !supported(u) {
			continue
		}
		seen[u] = true
		items = append(items, domain.MediaDescriptor{URL: u, Kind: domain.KindForURL(u)})
	}
	return items, nil
}

// fromFolder scans a local directory and builds public URLs for each media
// file, served from the /media route.
func fromFolder(dir, publicURL string) ([]domain.MediaDescriptor, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read media folder: %w", err)
	}

	var items []domain.MediaDescriptor
	for _, entry := range entries {
		if entry.IsDir() || !supported(entry.Name()) {
			continue
		}
		u := publicURL + "/media/" + url.PathEscape(entry.Name())
		items = append(items, domain.MediaDescriptor{URL: u, Kind: domain.KindForURL(u)})
	}
	return items, nil
}

func supported(name string) bool {
	trimmed := name
	if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return allowedExtensions[strings.ToLower(filepath.Ext(trimmed))]
}
