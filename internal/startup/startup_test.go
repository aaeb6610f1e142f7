package startup

import (
	"testing"

	"thumbgrid/internal/thumb"
)

func TestLoadConfigDefaults(t *testing.T) {
	mediaDir := t.TempDir()
	dbDir := t.TempDir()

	t.Setenv("MEDIA_DIR", mediaDir)
	t.Setenv("DATABASE_DIR", dbDir)
	t.Setenv("PORT", "")
	t.Setenv("CACHE_CAPACITY", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("THUMB_BOX_WIDTH", "")
	t.Setenv("THUMB_BOX_HEIGHT", "")
	t.Setenv("DECODE_WORKERS", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.CacheCapacity != thumb.DefaultCacheCapacity {
		t.Errorf("CacheCapacity = %d, want %d", config.CacheCapacity, thumb.DefaultCacheCapacity)
	}
	if config.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", config.PageSize)
	}
	if config.ThumbBoxW != 520 || config.ThumbBoxH != 400 {
		t.Errorf("thumb box = %dx%d, want 520x400", config.ThumbBoxW, config.ThumbBoxH)
	}
	if config.DecodeWorkers < 1 || config.DecodeWorkers > 6 {
		t.Errorf("DecodeWorkers = %d, want 1..6", config.DecodeWorkers)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	mediaDir := t.TempDir()

	t.Setenv("MEDIA_DIR", mediaDir)
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_CAPACITY", "100")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("DECODE_WORKERS", "2")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != "9999" {
		t.Errorf("Port = %q, want 9999", config.Port)
	}
	if config.CacheCapacity != 100 {
		t.Errorf("CacheCapacity = %d, want 100", config.CacheCapacity)
	}
	if config.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", config.PageSize)
	}
	if config.DecodeWorkers != 2 {
		t.Errorf("DecodeWorkers = %d, want 2", config.DecodeWorkers)
	}
}

func TestLoadConfigRejectsMissingMediaDir(t *testing.T) {
	t.Setenv("MEDIA_DIR", "/does/not/exist")
	t.Setenv("DATABASE_DIR", t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing MEDIA_DIR")
	}
}

func TestLoadConfigDisablesIndexWithoutDatabaseDir(t *testing.T) {
	t.Setenv("MEDIA_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", "/does/not/exist")
	t.Setenv("INDEX_ENABLED", "true")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.IndexEnabled {
		t.Error("IndexEnabled should be false when DATABASE_DIR is missing")
	}
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("MEDIA_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("CACHE_CAPACITY", "zero")
	t.Setenv("PAGE_SIZE", "-4")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.CacheCapacity != thumb.DefaultCacheCapacity {
		t.Errorf("CacheCapacity = %d, want default on parse failure", config.CacheCapacity)
	}
	if config.PageSize != 20 {
		t.Errorf("PageSize = %d, want default for non-positive value", config.PageSize)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" {
		t.Error("build info has empty fields")
	}
}
