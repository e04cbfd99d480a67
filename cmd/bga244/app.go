package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/config"
	"github.com/fpawel/bga244/internal/data"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/fpawel/bga244/internal/pkg"
	"github.com/fpawel/bga244/internal/pkg/logfile"
	"github.com/fpawel/bga244/internal/worklua"
	"github.com/jmoiron/sqlx"
	"github.com/powerman/structlog"
	"gopkg.in/yaml.v3"
)

type options struct {
	mode    string
	conc    string
	journal bool
	count   int
	logfile bool
}

type openFunc = func(ctx context.Context, c bga.Config, table *gastable.Table, log *structlog.Logger) (*bga.Session, error)

type app struct {
	cfg  config.Config
	out  io.Writer
	open openFunc
	log  *structlog.Logger
}

func newApp(cfg config.Config, out io.Writer) *app {
	return &app{
		cfg:  cfg,
		out:  out,
		open: bga.Open,
		log:  pkg.LogPrependSuffixKeys(structlog.New(), "port", cfg.Comport.Name),
	}
}

func (x *app) run(ctx context.Context, command string, args []string, opts options) error {
	switch command {
	case "gases":
		return x.gases()
	case "config":
		return yaml.NewEncoder(x.out).Encode(x.cfg)
	case "info":
		return x.withSession(ctx, x.info)
	case "setup":
		if len(args) != 2 {
			return merry.New("setup: primary and secondary gas expected")
		}
		return x.withSession(ctx, func(ctx context.Context, s *bga.Session) error {
			return x.setup(ctx, s, opts, args[0], args[1])
		})
	case "poll":
		return x.withSession(ctx, func(ctx context.Context, s *bga.Session) error {
			return x.poll(ctx, s, opts)
		})
	case "script":
		if len(args) != 1 {
			return merry.New("script: file name expected")
		}
		return x.withSession(ctx, func(ctx context.Context, s *bga.Session) error {
			return worklua.Run(ctx, s, args[0], x.log)
		})
	case "home":
		return x.withSession(ctx, func(ctx context.Context, s *bga.Session) error {
			return s.SetHomeScreen(ctx)
		})
	case "lasterror":
		return x.withSession(ctx, func(ctx context.Context, s *bga.Session) error {
			e, err := s.LastError(ctx)
			if err != nil {
				return err
			}
			if e == "" {
				e = "no error"
			}
			fmt.Fprintln(x.out, e)
			return nil
		})
	default:
		return merry.Errorf("unknown command %q", command)
	}
}

func (x *app) withSession(ctx context.Context, f func(context.Context, *bga.Session) error) error {
	table, err := x.cfg.Table()
	if err != nil {
		return err
	}
	s, err := x.open(ctx, x.cfg.Session(), table, x.log)
	if err != nil {
		return err
	}
	defer x.log.ErrIfFail(s.Close)
	if e := s.StartupError(); e != "" {
		fmt.Fprintf(x.out, "instrument error on connect: %s\n", e)
	}
	return f(ctx, s)
}

func (x *app) gases() error {
	table, err := x.cfg.Table()
	if err != nil {
		return err
	}
	for _, name := range table.Names() {
		cas, err := table.Registry(gastable.Name(name))
		if err != nil {
			return err
		}
		fmt.Fprintf(x.out, "%-16s %s\n", name, cas)
	}
	return nil
}

func (x *app) info(ctx context.Context, s *bga.Session) error {
	id, err := s.Identify(ctx)
	if err != nil {
		return err
	}
	mode, err := s.Mode(ctx)
	if err != nil {
		return err
	}
	ct, err := s.ConcentrationType(ctx)
	if err != nil {
		return err
	}
	gases, err := s.Gases(ctx)
	if err != nil {
		return err
	}
	units, err := s.Units(ctx)
	if err != nil {
		return err
	}
	t, err := s.Telemetry(ctx)
	if err != nil {
		return err
	}
	sos, err := s.SpeedOfSound(ctx)
	if err != nil {
		return err
	}
	heater, err := s.BlockStatus(ctx)
	if err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{"identification", id},
		{"mode", mode.String()},
		{"concentration", ct.String()},
		{"primary gas", gases.Primary},
		{"secondary gas", gases.Secondary},
		{"units", x.formatUnits(units)},
		{"ambient pressure", x.formatFloat(t.AmbientPressure) + " " + t.PressureUnit},
		{"analysis pressure", x.formatFloat(t.AnalysisPressure) + " " + t.PressureUnit},
		{"cell temperature", x.formatFloat(t.CellTemperature) + " " + t.TemperatureUnit},
		{"speed of sound", x.formatFloat(sos) + " " + units.Speed},
		{"heater", fmt.Sprintf("enabled=%v set point=%s current=%s max current=%s",
			heater.Enabled, x.formatFloat(heater.SetPoint), x.formatFloat(heater.Current), x.formatFloat(heater.MaxCurrent))},
		{"endplate temperature", x.formatFloat(heater.EndplateTemperature)},
		{"pcb temperature", x.formatFloat(heater.PCBTemperature)},
	} {
		fmt.Fprintf(x.out, "%-20s %s\n", kv[0], kv[1])
	}
	return nil
}

func (x *app) setup(ctx context.Context, s *bga.Session, opts options, primary, secondary string) error {
	mode, err := bga.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	ct, err := bga.ParseConcentrationType(opts.conc)
	if err != nil {
		return err
	}
	if err := s.SetMode(ctx, mode); err != nil {
		return err
	}
	if err := s.SetConcentrationType(ctx, ct); err != nil {
		return err
	}
	r, err := s.SetBinaryGases(ctx, gastable.Any(primary), gastable.Any(secondary))
	if err != nil {
		return err
	}
	fmt.Fprintf(x.out, "%s: %s, %s in %s\n", mode, ct, r.Actual.Primary, r.Actual.Secondary)
	if r.Mismatch() {
		fmt.Fprintf(x.out, "requested %s in %s\n", r.Requested.Primary, r.Requested.Secondary)
	}
	return nil
}

func (x *app) poll(ctx context.Context, s *bga.Session, opts options) error {
	out := x.out
	if opts.logfile {
		f, err := logfile.New(".poll")
		if err != nil {
			return err
		}
		defer x.log.ErrIfFail(f.Close)
		out = io.MultiWriter(out, f)
	}
	var db *sqlx.DB
	if opts.journal {
		var err error
		if db, err = data.Open(x.cfg.DBFilename()); err != nil {
			return err
		}
		defer x.log.ErrIfFail(db.Close)
	}

	ticker := time.NewTicker(x.cfg.PollInterval)
	defer ticker.Stop()
	for n := 0; opts.count == 0 || n < opts.count; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		if err := x.sample(ctx, s, db, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}

func (x *app) sample(ctx context.Context, s *bga.Session, db *sqlx.DB, out io.Writer) error {
	tm := time.Now()
	r, err := s.BinaryRatio(ctx)
	if err != nil {
		return err
	}
	m := r.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	xs := make([]string, len(keys))
	for i, k := range keys {
		xs[i] = k + "=" + x.formatFloat(m[k])
	}
	fmt.Fprintf(out, "%s %s\n", tm.Format("15:04:05"), strings.Join(xs, " "))

	if db == nil {
		return nil
	}
	if _, err := data.SaveRatio(ctx, db, tm, x.cfg.Comport.Name, r); err != nil {
		return err
	}
	t, err := s.Telemetry(ctx)
	if err != nil {
		return err
	}
	_, err = data.SaveTelemetry(ctx, db, tm, x.cfg.Comport.Name, t)
	return err
}

func (x *app) formatFloat(v float64) string {
	return pkg.FormatFloat(v, x.cfg.FloatPrecision)
}

func (x *app) formatUnits(u bga.Units) string {
	m := u.Map()
	return fmt.Sprintf("ratio=%s speed=%s temperature=%s pressure=%s",
		m["ratio"], m["speed"], m["temperature"], m["pressure"])
}
