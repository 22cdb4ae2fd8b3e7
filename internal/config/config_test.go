package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path) // file absent: defaults apply
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ChunkRows != 256 || c.ChunkCols != 64 {
		t.Fatalf("chunk tiling = %dx%d, want 256x64", c.ChunkRows, c.ChunkCols)
	}
	if c.MaxRows != 1048576 || c.MaxCols != 16384 {
		t.Fatalf("ceilings = %dx%d", c.MaxRows, c.MaxCols)
	}
	if c.ChunkTimeout() != 5*time.Second {
		t.Fatalf("chunk timeout = %v", c.ChunkTimeout())
	}
	if c.MaxFileBytes() != 200<<20 {
		t.Fatalf("max file bytes = %d", c.MaxFileBytes())
	}
	if c.OverscanRows != 8 || c.OverscanCols != 4 {
		t.Fatalf("overscan = %d/%d", c.OverscanRows, c.OverscanCols)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunk_rows: 128\nmax_file_mb: 50\nrow_height: 24\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ChunkRows != 128 {
		t.Fatalf("chunk_rows = %d, want 128", c.ChunkRows)
	}
	if c.MaxFileMB != 50 {
		t.Fatalf("max_file_mb = %d, want 50", c.MaxFileMB)
	}
	if c.RowHeight != 24 {
		t.Fatalf("row_height = %g, want 24", c.RowHeight)
	}
	// Unset keys keep their defaults.
	if c.ChunkCols != 64 {
		t.Fatalf("chunk_cols = %d, want default 64", c.ChunkCols)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.ChunkRows = 512
	c.PrintPageRows = 60
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.ChunkRows != 512 || back.PrintPageRows != 60 {
		t.Fatalf("round trip lost values: %+v", back)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SHEETVIEW_CHUNK_ROWS", "32")
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ChunkRows != 32 {
		t.Fatalf("env override ignored: chunk_rows = %d", c.ChunkRows)
	}
}
