package bga

import (
	"context"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/codec"
)

// Block heater setters are not read back.

func (x *Session) SetHeaterEnabled(ctx context.Context, enable bool) error {
	return x.setValue(ctx, codec.HeaterEnable, codec.FormatBool(enable))
}

func (x *Session) HeaterEnabled(ctx context.Context) (bool, error) {
	end, err := x.begin()
	if err != nil {
		return false, err
	}
	defer end()
	return x.queryBool(ctx, codec.HeaterEnable)
}

// SetHeaterMaxCurrent sets the heater current limit in amperes.
func (x *Session) SetHeaterMaxCurrent(ctx context.Context, amps float64) error {
	return x.setValue(ctx, codec.HeaterMaxCurrent, codec.FormatFloat(amps))
}

func (x *Session) HeaterMaxCurrent(ctx context.Context) (float64, error) {
	return x.float(ctx, codec.HeaterMaxCurrent)
}

// SetHeaterSetPoint sets the block temperature to hold.
func (x *Session) SetHeaterSetPoint(ctx context.Context, degrees float64) error {
	return x.setValue(ctx, codec.HeaterSetPoint, codec.FormatFloat(degrees))
}

func (x *Session) HeaterSetPoint(ctx context.Context) (float64, error) {
	return x.float(ctx, codec.HeaterSetPoint)
}

func (x *Session) EndplateTemperature(ctx context.Context) (float64, error) {
	return x.float(ctx, codec.EndplateTemp)
}

func (x *Session) PCBTemperature(ctx context.Context) (float64, error) {
	return x.float(ctx, codec.PCBTemp)
}

// BlockStatus reads the whole heater state. The first failing query aborts
// the rest and fails the result.
func (x *Session) BlockStatus(ctx context.Context) (BlockStatus, error) {
	var r BlockStatus
	end, err := x.begin()
	if err != nil {
		return r, err
	}
	defer end()
	if r.Enabled, err = x.queryBool(ctx, codec.HeaterEnable); err != nil {
		return BlockStatus{}, err
	}
	for _, q := range []struct {
		c codec.Command
		p *float64
	}{
		{codec.HeaterMaxCurrent, &r.MaxCurrent},
		{codec.HeaterSetPoint, &r.SetPoint},
		{codec.HeaterCurrent, &r.Current},
		{codec.EndplateTemp, &r.EndplateTemperature},
		{codec.PCBTemp, &r.PCBTemperature},
	} {
		if *q.p, err = x.queryFloat(ctx, q.c); err != nil {
			return BlockStatus{}, err
		}
	}
	return r, nil
}

func (x *Session) setValue(ctx context.Context, c codec.Command, arg string) error {
	end, err := x.begin()
	if err != nil {
		return err
	}
	defer end()
	return x.set(ctx, c, arg)
}

var errUnknownCode = merry.New("code is not in the session configuration")

func errorUnknownValue(what string, v interface{}) error {
	return merry.Errorf("%s %v has no code in the session configuration", what, v)
}
