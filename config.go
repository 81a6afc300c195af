// This file adapts the teacher's config.go (init-if-missing / read / write
// round trip over github.com/BurntSushi/toml) from NoiseTorch's audio
// settings to the six options spec.md §6 names.
package flowi

import (
	"bytes"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the six tunables spec.md §6 names, with the defaults it
// gives.
type Config struct {
	ArenaReserve      int     // bytes; default 1 GiB
	TileSize          int     // pixels; default 128
	CacheSize         int     // fileorama URL-cache entries; default 5
	WorkerThreads     int     // job-system pool size; default 2
	DoubleClickTime   float64 // seconds; default 0.60
	DoubleClickMaxDistSq float32 // squared pixels; default 36
}

const configFileName = "flowi.toml"

// DefaultConfig returns spec.md §6's configuration table as a Config.
func DefaultConfig() Config {
	return Config{
		ArenaReserve:          1 << 30,
		TileSize:              128,
		CacheSize:             5,
		WorkerThreads:         2,
		DoubleClickTime:       0.60,
		DoubleClickMaxDistSq:  36,
	}
}

// InitializeConfigIfNot writes a default flowi.toml into dir if one is not
// already present, mirroring the teacher's initializeConfigIfNot.
func InitializeConfigIfNot(dir string) error {
	ok, err := exists(dir)
	if err != nil {
		return err
	}
	if !ok {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	f := filepath.Join(dir, configFileName)
	ok, err = exists(f)
	if err != nil {
		return err
	}
	if !ok {
		log.Println("flowi: initializing default config at", f)
		return WriteConfig(dir, DefaultConfig())
	}
	return nil
}

// ReadConfig loads flowi.toml from dir, matching the teacher's readConfig.
func ReadConfig(dir string) (Config, error) {
	cfg := Config{}
	_, err := toml.DecodeFile(filepath.Join(dir, configFileName), &cfg)
	return cfg, err
}

// WriteConfig serializes cfg to flowi.toml in dir, matching the teacher's
// writeConfig.
func WriteConfig(dir string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&cfg); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFileName), buf.Bytes(), 0644)
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
