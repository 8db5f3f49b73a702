package emulator

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/breadboard-emu/breadboard/avr"
)

// RunConfig holds the free-running execution rates used by a driving
// harness. The core itself only ever steps one instruction at a time.
type RunConfig struct {
	InstructionsPerTick uint8 `toml:"instructions_per_tick"`
	TicksPerSecond      uint8 `toml:"ticks_per_second"`
}

// Config is the persisted emulator configuration.
type Config struct {
	Geometry avr.Geometry `toml:"geometry"`
	Run      RunConfig    `toml:"run"`
}

// DefaultConfig returns the configuration used when none is persisted.
func DefaultConfig() Config {
	return Config{
		Geometry: avr.DefaultGeometry(),
		Run: RunConfig{
			InstructionsPerTick: 1,
			TicksPerSecond:      4,
		},
	}
}

// ConfigPath returns the default persisted configuration path.
func ConfigPath() (path string, err error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return
	}

	path = filepath.Join(dir, "breadboard", "config.toml")

	return
}

// LoadConfig reads a configuration file. A missing file is not an error
// and yields the default configuration.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
		return
	}
	if err != nil {
		return
	}

	err = toml.Unmarshal(data, &cfg)

	return
}

// Save writes the configuration file, creating its directory as needed.
func (cfg Config) Save(path string) (err error) {
	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return
	}

	err = os.WriteFile(path, data, 0o644)

	return
}
