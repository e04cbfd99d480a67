package bga

import (
	"fmt"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/comport"
)

// Mode is the analyzer operating mode.
type Mode int

const (
	BinaryGasAnalyzer Mode = iota + 1
	GasPurityAnalyzer
	PhysicalMeasurements
)

var modeNames = map[Mode]string{
	BinaryGasAnalyzer:    "Binary Gas Analyzer",
	GasPurityAnalyzer:    "Gas Purity Analyzer",
	PhysicalMeasurements: "Physical Measurements",
}

func (x Mode) String() string {
	if s, f := modeNames[x]; f {
		return s
	}
	return fmt.Sprintf("mode %d", int(x))
}

// ParseMode accepts the display name of a mode, case-insensitive.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return 0, merry.Errorf("unknown mode %q", s)
}

// ConcentrationType selects how gas concentrations are expressed.
type ConcentrationType int

const (
	MoleFraction ConcentrationType = iota + 1
	MassFraction
)

var concentrationTypeNames = map[ConcentrationType]string{
	MoleFraction: "Mole Fraction",
	MassFraction: "Mass Fraction",
}

func (x ConcentrationType) String() string {
	if s, f := concentrationTypeNames[x]; f {
		return s
	}
	return fmt.Sprintf("concentration type %d", int(x))
}

// ParseConcentrationType accepts the display name of a concentration type
// or its short form "mole" or "mass", case-insensitive.
func ParseConcentrationType(s string) (ConcentrationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mole":
		return MoleFraction, nil
	case "mass":
		return MassFraction, nil
	}
	for c, name := range concentrationTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return 0, merry.Errorf("unknown concentration type %q", s)
}

// Config is fixed for the lifetime of a session.
type Config struct {
	Port comport.Config
	// Pause is the minimum interval between the end of one exchange and the
	// start of the next.
	Pause              time.Duration
	ModeCodes          map[Mode]int
	ConcentrationCodes map[ConcentrationType]int
	PressureUnit       string
	TemperatureUnit    string
}

// DefaultConfig returns the instrument factory settings for the given port.
func DefaultConfig(portName string) Config {
	return Config{
		Port:  comport.DefaultConfig(portName),
		Pause: 100 * time.Millisecond,
		ModeCodes: map[Mode]int{
			BinaryGasAnalyzer:    1,
			GasPurityAnalyzer:    2,
			PhysicalMeasurements: 3,
		},
		ConcentrationCodes: map[ConcentrationType]int{
			MoleFraction: 1,
			MassFraction: 2,
		},
		PressureUnit:    "kPa",
		TemperatureUnit: "C",
	}
}

func (c Config) Validate() error {
	if c.Pause < 0 {
		return merry.Errorf("wrong pause=%v: must not be negative", c.Pause)
	}
	for m := range modeNames {
		if _, f := c.ModeCodes[m]; !f {
			return merry.Errorf("no code for mode %q", m)
		}
	}
	for ct := range concentrationTypeNames {
		if _, f := c.ConcentrationCodes[ct]; !f {
			return merry.Errorf("no code for concentration type %q", ct)
		}
	}
	modes := make(map[int]Mode)
	for m, code := range c.ModeCodes {
		if other, f := modes[code]; f {
			return merry.Errorf("code %d is used by both %q and %q", code, other, m)
		}
		modes[code] = m
	}
	concentrationTypes := make(map[int]ConcentrationType)
	for ct, code := range c.ConcentrationCodes {
		if other, f := concentrationTypes[code]; f {
			return merry.Errorf("code %d is used by both %q and %q", code, other, ct)
		}
		concentrationTypes[code] = ct
	}
	if strings.TrimSpace(c.PressureUnit) == "" {
		return merry.New("pressure unit must be set")
	}
	if strings.TrimSpace(c.TemperatureUnit) == "" {
		return merry.New("temperature unit must be set")
	}
	return nil
}

// clone returns c with private copies of the code tables.
func (c Config) clone() Config {
	r := c
	r.ModeCodes = make(map[Mode]int, len(c.ModeCodes))
	for k, v := range c.ModeCodes {
		r.ModeCodes[k] = v
	}
	r.ConcentrationCodes = make(map[ConcentrationType]int, len(c.ConcentrationCodes))
	for k, v := range c.ConcentrationCodes {
		r.ConcentrationCodes[k] = v
	}
	return r
}

// GasPair holds the names of the two gases of binary analysis.
type GasPair struct {
	Primary   string
	Secondary string
}

// BinaryGasReport tells what was requested from SetBinaryGases and what the
// instrument reported back.
type BinaryGasReport struct {
	Requested GasPair
	Actual    GasPair
}

// Mismatch is true when the instrument did not take the requested gases.
func (x BinaryGasReport) Mismatch() bool {
	return x.Requested != x.Actual
}

// BinaryRatio is one binary gas ratio measurement.
type BinaryRatio struct {
	Gases       GasPair
	Primary     float64
	Secondary   float64
	Uncertainty float64
}

// KeyUncertainty is the Map key of the ratio uncertainty.
const KeyUncertainty = "uncertainty"

// Map keys the ratios by gas name and adds the uncertainty.
func (x BinaryRatio) Map() map[string]float64 {
	return map[string]float64{
		x.Gases.Primary:   x.Primary,
		x.Gases.Secondary: x.Secondary,
		KeyUncertainty:    x.Uncertainty,
	}
}

// Telemetry is a snapshot of the cell conditions.
type Telemetry struct {
	AmbientPressure  float64
	AnalysisPressure float64
	CellTemperature  float64
	PressureUnit     string
	TemperatureUnit  string
}

// BlockStatus is the state of the block heater.
type BlockStatus struct {
	Enabled             bool
	MaxCurrent          float64
	SetPoint            float64
	Current             float64
	EndplateTemperature float64
	PCBTemperature      float64
}

// Units reports the display unit of each quantity category.
type Units struct {
	Ratio       string
	Speed       string
	Temperature string
	Pressure    string
}

func (x Units) Map() map[string]string {
	return map[string]string{
		"ratio":       x.Ratio,
		"speed":       x.Speed,
		"temperature": x.Temperature,
		"pressure":    x.Pressure,
	}
}
