package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fmtuner/display"
	"fmtuner/radio"

	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/physic"
)

// Config represents the complete configuration of the tuner demo
type Config struct {
	Transport string        `yaml:"transport"`
	Bus       BusConfig     `yaml:"bus"`
	Tuner     TunerConfig   `yaml:"tuner"`
	Search    SearchConfig  `yaml:"search"`
	Display   DisplayConfig `yaml:"display"`
	Log       LogConfig     `yaml:"log"`
	Console   bool          `yaml:"console"`
}

// BusConfig selects the i2c bus. Name is used by the periph transport,
// Number by the gobot one (-1 picks the adaptor default).
type BusConfig struct {
	Name    string `yaml:"name"`
	Number  int    `yaml:"number"`
	Address int    `yaml:"address"`
}

// TunerConfig holds the initial state of the receiver
type TunerConfig struct {
	FrequencyKHz int    `yaml:"frequencyKhz"`
	Band         string `yaml:"band"`
	Clock        string `yaml:"clock"`
	Injection    string `yaml:"injection"`
	DeEmphasis   string `yaml:"deEmphasis"`
	StopLevel    string `yaml:"stopLevel"`
	Mono         bool   `yaml:"mono"`
	SoftMute     bool   `yaml:"softMute"`
}

// SearchConfig bounds a station search
type SearchConfig struct {
	PollIntervalMs int `yaml:"pollIntervalMs"`
	MaxPolls       int `yaml:"maxPolls"`
}

// DisplayConfig holds the LCD settings, only used with the gobot transport
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	Address int  `yaml:"address"`
}

// LogConfig holds the log file settings. An empty File logs to stderr.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
	Debug      bool   `yaml:"debug"`
}

// Load loads the configuration from path, when set, and the environment
func Load(path string) (*Config, error) {
	cfg := getDefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %v", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

func getDefaultConfig() *Config {
	return &Config{
		Transport: "gobot",
		Bus: BusConfig{
			Name:    "",
			Number:  -1,
			Address: radio.Address,
		},
		Tuner: TunerConfig{
			FrequencyKHz: 88000,
			Band:         radio.BandUSEurope.String(),
			Clock:        radio.Clock32768Hz.String(),
			Injection:    radio.InjectionHighSide.String(),
			DeEmphasis:   radio.DeEmphasis50us.String(),
			StopLevel:    radio.StopLevelMid.String(),
		},
		Search: SearchConfig{
			PollIntervalMs: 200,
			MaxPolls:       50,
		},
		Display: DisplayConfig{
			Enabled: true,
			Address: display.Address,
		},
		Log: LogConfig{
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if transport := os.Getenv("FMTUNER_TRANSPORT"); transport != "" {
		cfg.Transport = transport
	}

	if bus := os.Getenv("FMTUNER_BUS"); bus != "" {
		cfg.Bus.Name = bus
	}

	if freq := os.Getenv("FMTUNER_FREQUENCY_KHZ"); freq != "" {
		if khz, err := strconv.Atoi(freq); err == nil {
			cfg.Tuner.FrequencyKHz = khz
		}
	}

	if debug := os.Getenv("FMTUNER_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			cfg.Log.Debug = on
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Transport != "gobot" && cfg.Transport != "periph" {
		return fmt.Errorf("invalid transport %q, must be one of: [gobot periph]", cfg.Transport)
	}

	if cfg.Bus.Address <= 0 || cfg.Bus.Address > 0x7F {
		return fmt.Errorf("invalid i2c address 0x%x", cfg.Bus.Address)
	}

	if cfg.Display.Enabled && (cfg.Display.Address <= 0 || cfg.Display.Address > 0x7F) {
		return fmt.Errorf("invalid display address 0x%x", cfg.Display.Address)
	}

	if cfg.Search.PollIntervalMs <= 0 || cfg.Search.MaxPolls <= 0 {
		return fmt.Errorf("search poll interval %dms and max polls %d must be positive",
			cfg.Search.PollIntervalMs, cfg.Search.MaxPolls)
	}

	// the tuner settings are checked by the driver itself
	_, err := cfg.settings()
	return err
}

// settings parses the tuner section.
func (c *Config) settings() (radio.Settings, error) {
	s := radio.DefaultSettings()

	var err error
	if s.Band, err = radio.ParseBand(c.Tuner.Band); err != nil {
		return s, err
	}
	if s.Clock, err = radio.ParseClock(c.Tuner.Clock); err != nil {
		return s, err
	}
	if s.Injection, err = radio.ParseInjection(c.Tuner.Injection); err != nil {
		return s, err
	}
	if s.DeEmphasis, err = radio.ParseDeEmphasis(c.Tuner.DeEmphasis); err != nil {
		return s, err
	}
	if s.StopLevel, err = radio.ParseStopLevel(c.Tuner.StopLevel); err != nil {
		return s, err
	}
	if c.Tuner.Mono {
		s.Output = radio.OutputMono
	}
	s.SoftMute = c.Tuner.SoftMute

	return s, nil
}

// DriverConfig builds the configuration of the TEA5767 driver.
func (c *Config) DriverConfig(logf, debugf func(string, ...interface{})) (radio.TEA5767Config, error) {
	s, err := c.settings()
	if err != nil {
		return radio.TEA5767Config{}, err
	}

	cfg := radio.TEA5767Config{
		Frequency:          physic.Frequency(c.Tuner.FrequencyKHz) * physic.KiloHertz,
		Settings:           &s,
		SearchPollInterval: time.Duration(c.Search.PollIntervalMs) * time.Millisecond,
		SearchMaxPolls:     c.Search.MaxPolls,
		Delay:              time.Sleep,
		Log:                logf,
	}
	if c.Log.Debug {
		cfg.DebugLog = debugf
	}

	if err = cfg.Validate(); err != nil {
		return radio.TEA5767Config{}, err
	}
	return cfg, nil
}
