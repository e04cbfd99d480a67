// Package worklua runs Lua scripts against an analyzer session.
//
// A script sees the global bga with the session operations, the global
// sleep(seconds) and info(...). A failed operation raises a Lua error which
// stops the script.
package worklua

import (
	"context"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/powerman/structlog"
	lua "github.com/yuin/gopher-lua"
	luar "layeh.com/gopher-luar"
)

// Run executes the script file until it ends, fails or ctx is done.
func Run(ctx context.Context, s *bga.Session, filename string, log *structlog.Logger) error {
	L := newState(ctx, s, log)
	defer L.Close()
	if err := L.DoFile(filename); err != nil {
		return merry.Prepend(err, filename)
	}
	return nil
}

// RunString executes the script source.
func RunString(ctx context.Context, s *bga.Session, source string, log *structlog.Logger) error {
	L := newState(ctx, s, log)
	defer L.Close()
	return L.DoString(source)
}

func newState(ctx context.Context, s *bga.Session, log *structlog.Logger) *lua.LState {
	if log == nil {
		log = structlog.New()
	}
	L := lua.NewState()
	L.SetContext(ctx)
	imp := NewImport(L, s, log)
	L.SetGlobal("bga", luar.New(L, imp))
	L.SetGlobal("sleep", L.NewFunction(imp.sleep))
	L.SetGlobal("info", L.NewFunction(imp.info))
	return L
}

// Import is the bga object of a script.
type Import struct {
	l   *lua.LState
	s   *bga.Session
	log *structlog.Logger
}

func NewImport(l *lua.LState, s *bga.Session, log *structlog.Logger) *Import {
	return &Import{l: l, s: s, log: log}
}

func (x *Import) Identify() string {
	v, err := x.s.Identify(x.ctx())
	x.check(err)
	return v
}

func (x *Import) LastError() string {
	v, err := x.s.LastError(x.ctx())
	x.check(err)
	return v
}

func (x *Import) SetMode(name string) {
	mode, err := bga.ParseMode(name)
	if err != nil {
		x.l.ArgError(1, err.Error())
	}
	x.check(x.s.SetMode(x.ctx(), mode))
}

func (x *Import) Mode() string {
	v, err := x.s.Mode(x.ctx())
	x.check(err)
	return v.String()
}

func (x *Import) SetConcentrationType(name string) {
	ct, err := bga.ParseConcentrationType(name)
	if err != nil {
		x.l.ArgError(1, err.Error())
	}
	x.check(x.s.SetConcentrationType(x.ctx(), ct))
}

func (x *Import) ConcentrationType() string {
	v, err := x.s.ConcentrationType(x.ctx())
	x.check(err)
	return v.String()
}

// Gases returns the primary and the secondary gas names.
func (x *Import) Gases() (string, string) {
	v, err := x.s.Gases(x.ctx())
	x.check(err)
	return v.Primary, v.Secondary
}

func (x *Import) SetGas(gas string) {
	x.check(x.s.SetGas(x.ctx(), gastable.Any(gas)))
}

// SetBinaryGases returns false when the instrument took other gases than
// requested.
func (x *Import) SetBinaryGases(primary, secondary string) bool {
	r, err := x.s.SetBinaryGases(x.ctx(), gastable.Any(primary), gastable.Any(secondary))
	x.check(err)
	return !r.Mismatch()
}

// BinaryRatio returns a table keyed by gas names plus "uncertainty".
func (x *Import) BinaryRatio() *lua.LTable {
	r, err := x.s.BinaryRatio(x.ctx())
	x.check(err)
	t := x.l.NewTable()
	for k, v := range r.Map() {
		t.RawSetString(k, lua.LNumber(v))
	}
	return t
}

func (x *Import) Telemetry() *lua.LTable {
	r, err := x.s.Telemetry(x.ctx())
	x.check(err)
	t := x.l.NewTable()
	t.RawSetString("ambient_pressure", lua.LNumber(r.AmbientPressure))
	t.RawSetString("analysis_pressure", lua.LNumber(r.AnalysisPressure))
	t.RawSetString("cell_temperature", lua.LNumber(r.CellTemperature))
	t.RawSetString("pressure_unit", lua.LString(r.PressureUnit))
	t.RawSetString("temperature_unit", lua.LString(r.TemperatureUnit))
	return t
}

func (x *Import) SpeedOfSound() float64 {
	v, err := x.s.SpeedOfSound(x.ctx())
	x.check(err)
	return v
}

func (x *Import) SetHeater(enable bool) {
	x.check(x.s.SetHeaterEnabled(x.ctx(), enable))
}

func (x *Import) SetHeaterSetPoint(degrees float64) {
	x.check(x.s.SetHeaterSetPoint(x.ctx(), degrees))
}

func (x *Import) Home() {
	x.check(x.s.SetHomeScreen(x.ctx()))
}

// Setup applies the mode, the concentration type and the gas pair, each
// only if given. It returns false when the instrument took other gases.
func (x *Import) Setup(arg *lua.LTable) bool {
	a, err := parseSetup(arg)
	if err != nil {
		x.l.ArgError(1, err.Error())
	}
	ctx := x.ctx()
	if a.mode != 0 {
		x.check(x.s.SetMode(ctx, a.mode))
	}
	if a.conc != 0 {
		x.check(x.s.SetConcentrationType(ctx, a.conc))
	}
	if a.gases == nil {
		return true
	}
	r, err := x.s.SetBinaryGases(ctx, gastable.Any(a.gases[0]), gastable.Any(a.gases[1]))
	x.check(err)
	return !r.Mismatch()
}

func (x *Import) sleep(L *lua.LState) int {
	sec := L.CheckNumber(1)
	timer := time.NewTimer(time.Duration(float64(sec) * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-x.ctx().Done():
	case <-timer.C:
	}
	return 0
}

func (x *Import) info(L *lua.LState) int {
	xs := make([]string, L.GetTop())
	for i := range xs {
		xs[i] = stringify(L.Get(i + 1))
	}
	x.log.Info(strings.Join(xs, " "))
	return 0
}

func (x *Import) ctx() context.Context {
	if ctx := x.l.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (x *Import) check(err error) {
	check(x.l, err)
}

// check raises err in the script. Cancellation is left to the Lua VM, which
// stops on its own once the state context is done.
func check(l *lua.LState, err error) {
	if merry.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		l.RaiseError("%s", err)
	}
}
