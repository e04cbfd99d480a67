package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/comport"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/fpawel/bga244/internal/pkg/cfgfile"
	"gopkg.in/yaml.v3"
)

// Config is the content of config.yaml.
type Config struct {
	Comport         comport.Config `yaml:"comport"`
	Pause           time.Duration  `yaml:"pause"`             // minimum interval between commands
	GasTable        string         `yaml:"gas_table"`         // empty: embedded table
	PressureUnit    string         `yaml:"pressure_unit"`
	TemperatureUnit string         `yaml:"temperature_unit"`
	DB              string         `yaml:"db"`
	PollInterval    time.Duration  `yaml:"poll_interval"`
	FloatPrecision  int            `yaml:"float_precision"`
}

// DefaultFilename is config.yaml next to the executable.
const DefaultFilename = "config.yaml"

// Load reads the file. A missing file gives the defaults; a malformed one is
// an error.
func Load(filename string) (Config, error) {
	c := Default()
	file := cfgfile.New(filename, yaml.Marshal, yaml.Unmarshal)
	if !file.Exists() {
		log.Debug("no config file, using defaults", "file", file.Filename())
		return c, nil
	}
	if err := file.Get(&c); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, merry.Append(err, file.Filename())
	}
	return c, nil
}

// Save writes c to the file.
func (c Config) Save(filename string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return cfgfile.New(filename, yaml.Marshal, yaml.Unmarshal).Set(c)
}

func (c Config) Validate() error {
	if err := c.Comport.Validate(); err != nil {
		return merry.Prepend(err, "comport")
	}
	if c.Pause < 0 {
		return merry.Errorf(`wrong pause=%v: must not be negative`, c.Pause)
	}
	if c.PollInterval <= 0 {
		return merry.Errorf(`wrong poll_interval=%v: must be positive`, c.PollInterval)
	}
	if c.FloatPrecision < 0 {
		return merry.Errorf(`wrong float_precision=%d: must not be negative`, c.FloatPrecision)
	}
	return c.Session().Validate()
}

// Session returns the settings of a device session.
func (c Config) Session() bga.Config {
	r := bga.DefaultConfig(c.Comport.Name)
	r.Port = c.Comport
	r.Pause = c.Pause
	if c.PressureUnit != "" {
		r.PressureUnit = c.PressureUnit
	}
	if c.TemperatureUnit != "" {
		r.TemperatureUnit = c.TemperatureUnit
	}
	return r
}

// Table loads the gas table: the file named by gas_table, or the embedded
// one. A relative gas_table is resolved like the config file.
func (c Config) Table() (*gastable.Table, error) {
	if c.GasTable == "" {
		return gastable.Default(), nil
	}
	filename := c.GasTable
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(filepath.Dir(os.Args[0]), filename)
	}
	return gastable.Load(filename)
}

// DBFilename resolves db like the config file.
func (c Config) DBFilename() string {
	if filepath.IsAbs(c.DB) {
		return c.DB
	}
	return filepath.Join(filepath.Dir(os.Args[0]), c.DB)
}
