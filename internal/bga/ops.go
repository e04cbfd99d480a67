package bga

import (
	"context"
	"strconv"

	"github.com/fpawel/bga244/internal/codec"
	"github.com/fpawel/bga244/internal/gastable"
)

// SetMode switches the analyzer mode. The setting is not read back.
func (x *Session) SetMode(ctx context.Context, mode Mode) error {
	end, err := x.begin()
	if err != nil {
		return err
	}
	defer end()
	code, err := x.modeCode(mode)
	if err != nil {
		return err
	}
	return x.set(ctx, codec.Mode, strconv.Itoa(code))
}

// Mode reads the analyzer mode.
func (x *Session) Mode(ctx context.Context) (Mode, error) {
	end, err := x.begin()
	if err != nil {
		return 0, err
	}
	defer end()
	code, err := x.queryInt(ctx, codec.Mode)
	if err != nil {
		return 0, err
	}
	for m, c := range x.cfg.ModeCodes {
		if c == code {
			return m, nil
		}
	}
	return 0, &codec.ProtocolError{Command: codec.Mode.Mnemonic, Raw: strconv.Itoa(code), Err: errUnknownCode}
}

// SetConcentrationType selects mole or mass fraction and reads the setting
// back. A readback different from the request is a *VerificationError.
func (x *Session) SetConcentrationType(ctx context.Context, ct ConcentrationType) error {
	end, err := x.begin()
	if err != nil {
		return err
	}
	defer end()
	code, f := x.cfg.ConcentrationCodes[ct]
	if !f {
		return errorUnknownValue("concentration type", ct)
	}
	want := strconv.Itoa(code)
	if err := x.set(ctx, codec.ConcentrationType, want); err != nil {
		return err
	}
	got, err := x.query(ctx, codec.ConcentrationType)
	if err != nil {
		return err
	}
	if n, err := codec.ConcentrationType.DecodeInt(got); err != nil || n != code {
		return &VerificationError{Command: codec.ConcentrationType.Mnemonic, Want: want, Got: got}
	}
	return nil
}

// ConcentrationType reads the concentration type.
func (x *Session) ConcentrationType(ctx context.Context) (ConcentrationType, error) {
	end, err := x.begin()
	if err != nil {
		return 0, err
	}
	defer end()
	code, err := x.queryInt(ctx, codec.ConcentrationType)
	if err != nil {
		return 0, err
	}
	for ct, c := range x.cfg.ConcentrationCodes {
		if c == code {
			return ct, nil
		}
	}
	return 0, &codec.ProtocolError{Command: codec.ConcentrationType.Mnemonic, Raw: strconv.Itoa(code), Err: errUnknownCode}
}

// Gases reads the primary and secondary gas and resolves them to names.
func (x *Session) Gases(ctx context.Context) (GasPair, error) {
	end, err := x.begin()
	if err != nil {
		return GasPair{}, err
	}
	defer end()
	return x.gases(ctx)
}

func (x *Session) gases(ctx context.Context) (GasPair, error) {
	primary, err := x.gas(ctx, codec.PrimaryGas)
	if err != nil {
		return GasPair{}, err
	}
	secondary, err := x.gas(ctx, codec.SecondaryGas)
	if err != nil {
		return GasPair{}, err
	}
	return GasPair{Primary: primary, Secondary: secondary}, nil
}

func (x *Session) gas(ctx context.Context, c codec.Command) (string, error) {
	cas, err := x.queryString(ctx, c)
	if err != nil {
		return "", err
	}
	return x.table.Name(gastable.CAS(cas))
}

// SetGas sets the primary gas. An unknown gas fails before anything is sent.
func (x *Session) SetGas(ctx context.Context, gas gastable.ID) error {
	cas, err := x.table.Registry(gas)
	if err != nil {
		return err
	}
	end, err := x.begin()
	if err != nil {
		return err
	}
	defer end()
	return x.set(ctx, codec.PrimaryGas, cas)
}

// SetBinaryGases sets both gases and reads them back. The instrument may
// coerce a gas; that is logged and reported in the result, not returned as
// an error.
func (x *Session) SetBinaryGases(ctx context.Context, primary, secondary gastable.ID) (BinaryGasReport, error) {
	var r BinaryGasReport
	cas1, err := x.table.Registry(primary)
	if err != nil {
		return r, err
	}
	cas2, err := x.table.Registry(secondary)
	if err != nil {
		return r, err
	}
	// both resolve since the CAS numbers came from the table
	r.Requested.Primary, _ = x.table.Name(gastable.CAS(cas1))
	r.Requested.Secondary, _ = x.table.Name(gastable.CAS(cas2))

	end, err := x.begin()
	if err != nil {
		return r, err
	}
	defer end()

	if err := x.set(ctx, codec.PrimaryGas, cas1); err != nil {
		return r, err
	}
	if err := x.set(ctx, codec.SecondaryGas, cas2); err != nil {
		return r, err
	}
	if r.Actual, err = x.gases(ctx); err != nil {
		return r, err
	}
	if r.Mismatch() {
		x.log.Warn("gases not taken by the instrument",
			"requested", r.Requested, "actual", r.Actual)
	}
	return r, nil
}

// BinaryRatio reads the gases, the ratio of each and the uncertainty.
func (x *Session) BinaryRatio(ctx context.Context) (BinaryRatio, error) {
	var r BinaryRatio
	end, err := x.begin()
	if err != nil {
		return r, err
	}
	defer end()
	if r.Gases, err = x.gases(ctx); err != nil {
		return r, err
	}
	if r.Primary, err = x.queryFloat(ctx, codec.Ratio, "1"); err != nil {
		return r, err
	}
	if r.Secondary, err = x.queryFloat(ctx, codec.Ratio, "2"); err != nil {
		return r, err
	}
	if r.Uncertainty, err = x.queryFloat(ctx, codec.Uncertainty); err != nil {
		return r, err
	}
	return r, nil
}

// Telemetry reads the ambient and analysis pressure and the cell temperature.
func (x *Session) Telemetry(ctx context.Context) (Telemetry, error) {
	r := Telemetry{
		PressureUnit:    x.cfg.PressureUnit,
		TemperatureUnit: x.cfg.TemperatureUnit,
	}
	end, err := x.begin()
	if err != nil {
		return r, err
	}
	defer end()
	if r.AmbientPressure, err = x.queryFloat(ctx, codec.AmbientPressure, x.cfg.PressureUnit); err != nil {
		return r, err
	}
	if r.AnalysisPressure, err = x.queryFloat(ctx, codec.AnalysisPressure, x.cfg.PressureUnit); err != nil {
		return r, err
	}
	if r.CellTemperature, err = x.queryFloat(ctx, codec.CellTemperature, x.cfg.TemperatureUnit); err != nil {
		return r, err
	}
	return r, nil
}

// SpeedOfSound reads the measured speed of sound.
func (x *Session) SpeedOfSound(ctx context.Context) (float64, error) {
	return x.float(ctx, codec.SpeedOfSound)
}

// Units reads the display unit of each quantity category.
func (x *Session) Units(ctx context.Context) (Units, error) {
	var r Units
	end, err := x.begin()
	if err != nil {
		return r, err
	}
	defer end()
	for _, u := range []struct {
		index int
		p     *string
	}{
		{codec.UnitRatio, &r.Ratio},
		{codec.UnitSpeed, &r.Speed},
		{codec.UnitTemperature, &r.Temperature},
		{codec.UnitPressure, &r.Pressure},
	} {
		if *u.p, err = x.queryString(ctx, codec.Unit, strconv.Itoa(u.index)); err != nil {
			return Units{}, err
		}
	}
	return r, nil
}

// SetHomeScreen returns the display to the home screen. Nothing is read.
func (x *Session) SetHomeScreen(ctx context.Context) error {
	end, err := x.begin()
	if err != nil {
		return err
	}
	defer end()
	return x.set(ctx, codec.HomeScreen)
}

// LastError reads and clears the instrument's buffered error, empty if none.
func (x *Session) LastError(ctx context.Context) (string, error) {
	end, err := x.begin()
	if err != nil {
		return "", err
	}
	defer end()
	return x.lastError(ctx)
}

// Identify reads the identification string.
func (x *Session) Identify(ctx context.Context) (string, error) {
	end, err := x.begin()
	if err != nil {
		return "", err
	}
	defer end()
	return x.queryString(ctx, codec.Identify)
}

func (x *Session) float(ctx context.Context, c codec.Command, args ...string) (float64, error) {
	end, err := x.begin()
	if err != nil {
		return 0, err
	}
	defer end()
	return x.queryFloat(ctx, c, args...)
}

func (x *Session) modeCode(mode Mode) (int, error) {
	code, f := x.cfg.ModeCodes[mode]
	if !f {
		return 0, errorUnknownValue("mode", mode)
	}
	return code, nil
}
