package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type LED struct {
	Driver  string        `yaml:"driver"`   // "apa102" | "nrzled" | "console" | "sim"
	SPIPort string        `yaml:"spi_port"` // periph spireg name, "" for the first port
	Count   int           `yaml:"count"`
	Cadence time.Duration `yaml:"cadence"`
	SpeedHz int64         `yaml:"speed_hz"` // apa102 clock; nrzled always runs at 2.5MHz
	// DegradeOnWriteError keeps the animation going after a failed write
	// instead of failing the search.
	DegradeOnWriteError bool `yaml:"degrade_on_write_error"`
}

type Display struct {
	Driver  string `yaml:"driver"`  // "ht16k33" | "console" | "sim"
	I2CBus  string `yaml:"i2c_bus"` // periph i2creg name, "" for the first bus
	Address uint16 `yaml:"address"`
}

type Search struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8080, empty disables
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	LED     LED     `yaml:"led"`
	Display Display `yaml:"display"`
	Search  Search  `yaml:"search"`
	Preview Preview `yaml:"preview,omitempty"`
	Log     Log     `yaml:"log"`
}

// Default matches a Rainbow HAT: 7 APA102 cells and an HT16K33 at 0x70.
func Default() *Config {
	return &Config{
		LED: LED{
			Driver:  "apa102",
			Count:   7,
			Cadence: 100 * time.Millisecond,
			SpeedHz: 1_000_000,
		},
		Display: Display{
			Driver:  "ht16k33",
			Address: 0x70,
		},
		Search: Search{
			BaseURL: "https://en.wikipedia.org/w/api.php",
			Timeout: 10 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over Default, so a partial file only overrides what it
// names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.LED.Driver {
	case "apa102", "nrzled", "console", "sim":
	default:
		return fmt.Errorf("unknown led driver %q", c.LED.Driver)
	}
	switch c.Display.Driver {
	case "ht16k33", "console", "sim":
	default:
		return fmt.Errorf("unknown display driver %q", c.Display.Driver)
	}
	if c.LED.Count <= 0 {
		return fmt.Errorf("led count must be positive, got %d", c.LED.Count)
	}
	if c.LED.SpeedHz < 0 {
		return fmt.Errorf("led speed_hz must not be negative, got %d", c.LED.SpeedHz)
	}
	if c.LED.Cadence <= 0 {
		return fmt.Errorf("led cadence must be positive, got %s", c.LED.Cadence)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("search timeout must be positive, got %s", c.Search.Timeout)
	}
	return nil
}
