package config

import (
	"runtime"
	"time"

	"github.com/fpawel/bga244/internal/comport"
	"github.com/powerman/structlog"
)

func Default() Config {
	return Config{
		Comport:         comport.DefaultConfig(defaultComport()),
		Pause:           100 * time.Millisecond,
		PressureUnit:    "kPa",
		TemperatureUnit: "C",
		DB:              "bga244.sqlite",
		PollInterval:    5 * time.Second,
		FloatPrecision:  6,
	}
}

func defaultComport() string {
	if runtime.GOOS == "windows" {
		return "COM3"
	}
	return "/dev/ttyUSB0"
}

var log = structlog.New()
