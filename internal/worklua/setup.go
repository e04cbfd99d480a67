package worklua

import (
	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/bga"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// luaSetup is the table passed to bga:Setup, e.g.
//
//	bga:Setup{ mode = "Binary Gas Analyzer", conc = "mole", gases = {"CO2", "N2"} }
type luaSetup struct {
	Mode  string
	Conc  string
	Gases []string
}

type setup struct {
	mode  bga.Mode
	conc  bga.ConcentrationType
	gases []string
}

func parseSetup(t *lua.LTable) (setup, error) {
	var (
		a luaSetup
		r setup
	)
	if err := gluamapper.Map(t, &a); err != nil {
		return r, merry.Prepend(err, "setup")
	}
	if a.Mode != "" {
		m, err := bga.ParseMode(a.Mode)
		if err != nil {
			return r, err
		}
		r.mode = m
	}
	if a.Conc != "" {
		ct, err := bga.ParseConcentrationType(a.Conc)
		if err != nil {
			return r, err
		}
		r.conc = ct
	}
	switch len(a.Gases) {
	case 0:
	case 2:
		r.gases = a.Gases
	default:
		return r, merry.Errorf("setup: gases: two gases expected, got %d", len(a.Gases))
	}
	return r, nil
}
