package flowi

import (
	"path/filepath"
	"testing"
)

func TestInitializeConfigIfNotWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	if err := InitializeConfigIfNot(dir); err != nil {
		t.Fatalf("InitializeConfigIfNot: %v", err)
	}

	got, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	want := DefaultConfig()
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestInitializeConfigIfNotLeavesExistingFileAlone(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.TileSize = 256
	if err := WriteConfig(dir, cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	if err := InitializeConfigIfNot(dir); err != nil {
		t.Fatalf("InitializeConfigIfNot: %v", err)
	}

	got, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got.TileSize != 256 {
		t.Fatalf("expected the pre-existing TileSize 256 to survive, got %d", got.TileSize)
	}
}

func TestWriteConfigThenReadConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()

	cfg := Config{
		ArenaReserve:         2 << 20,
		TileSize:             64,
		CacheSize:            9,
		WorkerThreads:        4,
		DoubleClickTime:      0.25,
		DoubleClickMaxDistSq: 16,
	}
	if err := WriteConfig(dir, cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}

	if _, err := exists(filepath.Join(dir, configFileName)); err != nil {
		t.Fatalf("exists: %v", err)
	}
}
