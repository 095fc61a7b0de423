package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmrelampagos/pagereply/internal/domain"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	return path
}

func TestLoad_ManifestFiltersAndDeduplicates(t *testing.T) {
	path := writeManifest(t, `[
		"https://cdn.example.com/one.jpg",
		"https://cdn.example.com/clip.mp4",
		"https://cdn.example.com/one.jpg",
		"https://cdn.example.com/readme.txt",
		""
	]`)

	items := Load(path, "", "")

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d: %v", len(items), items)
	}
	if items[0].URL != "https://cdn.example.com/one.jpg" || items[0].Kind != domain.MediaImage {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if items[1].URL != "https://cdn.example.com/clip.mp4" || items[1].Kind != domain.MediaVideo {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
}

func TestLoad_ManifestWithQueryStrings(t *testing.T) {
	path := writeManifest(t, `["https://cdn.example.com/clip.mov?v=2"]`)

	items := Load(path, "", "")

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	if items[0].Kind != domain.MediaVideo {
		t.Errorf("Expected video kind, got %s", items[0].Kind)
	}
}

func TestLoad_MalformedManifestIsEmpty(t *testing.T) {
	path := writeManifest(t, `{"not": "an array"}`)

	items := Load(path, "", "")

	if len(items) != 0 {
		t.Errorf("Expected empty catalog for malformed manifest, got %d items", len(items))
	}
}

func TestLoad_MissingManifestFallsBackToFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create media file: %v", err)
		}
	}

	items := Load(filepath.Join(dir, "missing.json"), dir, "https://bot.example.com")

	if len(items) != 2 {
		t.Fatalf("Expected 2 items from folder, got %d: %v", len(items), items)
	}
	for _, item := range items {
		if item.URL[:30] != "https://bot.example.com/media/" {
			t.Errorf("Expected public /media URL, got %s", item.URL)
		}
	}
}

func TestLoad_NothingConfigured(t *testing.T) {
	items := Load(filepath.Join(t.TempDir(), "missing.json"), "", "")

	if len(items) != 0 {
		t.Errorf("Expected empty catalog, got %d items", len(items))
	}
}
