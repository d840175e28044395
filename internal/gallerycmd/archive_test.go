package gallerycmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/memeforge/memeforge/internal/models"
)

func TestStorePath(t *testing.T) {
	t.Setenv("MEMEFORGE_DATA_DIR", "")

	if got := StorePath("/var/lib/memeforge"); got != filepath.Join("/var/lib/memeforge", "memeforge.db") {
		t.Errorf("Unexpected path %q", got)
	}
	if got := StorePath(""); got != filepath.Join("data", "memeforge.db") {
		t.Errorf("Expected default data dir, got %q", got)
	}

	t.Setenv("MEMEFORGE_DATA_DIR", "/tmp/mf")
	if got := StorePath(""); got != filepath.Join("/tmp/mf", "memeforge.db") {
		t.Errorf("Expected env data dir, got %q", got)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	c := models.Creation{
		ID:              "abc-123",
		Prompt:          "a moonwalking pigeon",
		Style:           "pixel-art",
		MimeType:        "image/png",
		ImageData:       []byte{1, 2, 3},
		FrameDurationMS: 220,
		CreatedAt:       created,
	}

	got := fromArchive(toArchive(c))
	if got.ID != c.ID || got.Prompt != c.Prompt || got.Style != c.Style {
		t.Errorf("Identity fields changed: %+v", got)
	}
	if got.FrameDurationMS != c.FrameDurationMS {
		t.Errorf("Expected %dms, got %dms", c.FrameDurationMS, got.FrameDurationMS)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected %v, got %v", created, got.CreatedAt)
	}
	if string(got.ImageData) != string(c.ImageData) {
		t.Error("Image bytes changed")
	}
}
