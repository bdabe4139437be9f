package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lookbusy1344/arm-core/vm"
)

// Config represents the host-level configuration a minimal driver loads
// before calling vm.Init: which architecture generation to emulate, its
// endianness policy, and the execution bounds a Run loop should respect.
// It is distinct from vm.Config, which is the architectural description
// the core itself consumes; this Config translates a TOML file into one.
type Config struct {
	Core struct {
		ArchVersion  string `toml:"arch_version"`  // "v4".."v9"
		Profile      string `toml:"profile"`       // "classic", "A", "R", "M"
		Endian       string `toml:"endian"`        // "le", "be8", "be32"
		SupportedISA []string `toml:"supported_isa"` // "arm32", "thumb", "thumbee", "jazelle", "arm64", "arm26"
	} `toml:"core"`

	Execution struct {
		MaxCycles    uint64 `toml:"max_cycles"`
		StackSize    uint   `toml:"stack_size"`
		DefaultEntry string `toml:"default_entry"`
	} `toml:"execution"`
}

// DefaultConfig returns a configuration matching vm.DefaultConfig():
// ARMv7-A, little-endian, ARM32/Thumb/ThumbEE/Jazelle supported.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Core.ArchVersion = "v7"
	cfg.Core.Profile = "A"
	cfg.Core.Endian = "le"
	cfg.Core.SupportedISA = []string{"arm32", "thumb", "thumbee", "jazelle"}

	cfg.Execution.MaxCycles = 1000000
	cfg.Execution.StackSize = 65536 // 64KB
	cfg.Execution.DefaultEntry = "0x8000"

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\arm-emu\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "arm-emu")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/arm-emu/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "arm-emu")

	default:
		// Unknown platform: use current directory
		return "config.toml"
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0750); err != nil {
		// If we can't create the directory, fall back to current directory
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\arm-emu\logs
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "arm-emu", "logs")

	case "darwin", "linux":
		// macOS/Linux: ~/.local/share/arm-emu/logs
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "arm-emu", "logs")

	default:
		return "logs"
	}

	// Ensure directory exists
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read and parse config file
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file
	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	// Encode to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

var archVersions = map[string]vm.ArchVersion{
	"v1": vm.ArchV1, "v2": vm.ArchV2, "v3": vm.ArchV3, "v4": vm.ArchV4,
	"v5": vm.ArchV5, "v6": vm.ArchV6, "v6t2": vm.ArchV6T2, "v7": vm.ArchV7,
	"v8": vm.ArchV8, "v9": vm.ArchV9,
}

var profiles = map[string]vm.Profile{
	"classic": vm.ProfileClassic, "a": vm.ProfileA, "r": vm.ProfileR, "m": vm.ProfileM,
}

var isaNames = map[string]vm.ISA{
	"arm26": vm.ISAArm26, "arm32": vm.ISAArm32, "thumb": vm.ISAThumb,
	"thumbee": vm.ISAThumbEE, "jazelle": vm.ISAJazelle, "arm64": vm.ISAArm64,
}

// ToVM translates the TOML-backed Config into the vm.Config and
// vm.ISASet that vm.Init expects, the one place host-facing strings meet
// the core's typed enums.
func (c *Config) ToVM() (vm.Config, vm.ISASet, error) {
	version, ok := archVersions[c.Core.ArchVersion]
	if !ok {
		return vm.Config{}, 0, fmt.Errorf("config: unknown arch_version %q", c.Core.ArchVersion)
	}
	profile, ok := profiles[strings.ToLower(c.Core.Profile)]
	if !ok {
		return vm.Config{}, 0, fmt.Errorf("config: unknown profile %q", c.Core.Profile)
	}

	cfg := vm.DefaultConfig()
	cfg.Version = version
	cfg.Profile = profile

	var supported vm.ISASet
	for _, name := range c.Core.SupportedISA {
		isa, ok := isaNames[strings.ToLower(name)]
		if !ok {
			return vm.Config{}, 0, fmt.Errorf("config: unknown supported_isa entry %q", name)
		}
		supported = supported.With(isa)
		switch isa {
		case vm.ISAArm64:
			cfg.Features = cfg.Features.With(vm.FeatureARM64)
		case vm.ISAArm26:
			cfg.Features = cfg.Features.With(vm.FeatureARM26)
		case vm.ISAThumb, vm.ISAThumbEE:
			cfg.Features = cfg.Features.With(vm.FeatureTHUMB)
		case vm.ISAJazelle:
			cfg.Features = cfg.Features.With(vm.FeatureJAZELLE)
		}
	}
	cfg.SupportedISA = supported

	return cfg, supported, nil
}

// EntryPoint parses execution.default_entry (a decimal or "0x"-prefixed
// hex string) and safely narrows it to the 32-bit PC value the core's
// register file stores, the one place a TOML-supplied number crosses
// into an architectural register.
func (c *Config) EntryPoint() (uint32, error) {
	v, err := strconv.ParseInt(c.Execution.DefaultEntry, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid default_entry %q: %w", c.Execution.DefaultEntry, err)
	}
	entry, err := vm.SafeInt64ToUint32(v)
	if err != nil {
		return 0, fmt.Errorf("config: default_entry out of range: %w", err)
	}
	return entry, nil
}

// StackSizeUint32 safely narrows execution.stack_size to the uint32 a
// memory segment's size expects, rejecting a configured size too large
// for this core's flat address space rather than silently truncating it.
func (c *Config) StackSizeUint32() (uint32, error) {
	size, err := vm.SafeUintToUint32(c.Execution.StackSize)
	if err != nil {
		return 0, fmt.Errorf("config: stack_size out of range: %w", err)
	}
	return size, nil
}

// Endian translates the host-facing endian string into vm.Endian.
func (c *Config) Endian() vm.Endian {
	switch strings.ToLower(c.Core.Endian) {
	case "be8":
		return vm.EndianBE8
	case "be32":
		return vm.EndianBE32
	default:
		return vm.EndianLE
	}
}
