package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/bga/bgatest"
	"github.com/fpawel/bga244/internal/config"
	"github.com/fpawel/bga244/internal/data"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/powerman/structlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*app, *bgatest.Sim, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Pause = 0
	cfg.PollInterval = 10 * time.Millisecond
	cfg.DB = filepath.Join(t.TempDir(), "bga244.sqlite")
	out := new(bytes.Buffer)
	sim := bgatest.New()
	a := newApp(cfg, out)
	a.open = func(ctx context.Context, c bga.Config, table *gastable.Table, log *structlog.Logger) (*bga.Session, error) {
		return bga.New(ctx, sim, c, table, log)
	}
	return a, sim, out
}

func TestGases(t *testing.T) {
	a, sim, out := newTestApp(t)
	require.NoError(t, a.run(context.Background(), "gases", nil, options{}))
	assert.Contains(t, out.String(), "Argon")
	assert.Contains(t, out.String(), "7440-37-1")
	assert.Empty(t, sim.Requests())
}

func TestSetup(t *testing.T) {
	a, sim, out := newTestApp(t)
	opts := options{mode: "Binary Gas Analyzer", conc: "mass"}
	require.NoError(t, a.run(context.Background(), "setup", []string{"Argon", "7727-37-9"}, opts))
	assert.Equal(t, []string{
		"LERR?", "MODE 1", "CTYP 2", "CTYP?", "GASP 7440-37-1", "GASS 7727-37-9", "GASP?", "GASS?",
	}, sim.Requests())
	assert.Contains(t, out.String(), "Argon in N2")
	assert.True(t, sim.Closed())

	assert.Error(t, a.run(context.Background(), "setup", []string{"Argon"}, opts))
}

func TestPollJournal(t *testing.T) {
	a, sim, out := newTestApp(t)
	sim.Set("RATO 1", "0.456")
	t0 := time.Now().Add(-time.Second)
	require.NoError(t, a.run(context.Background(), "poll", nil, options{journal: true, count: 2}))
	assert.Contains(t, out.String(), "CO2=0.456")
	assert.Contains(t, out.String(), "uncertainty=0.001")

	db, err := data.Open(a.cfg.DBFilename())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()
	xs, err := data.ListRatios(context.Background(), db, t0)
	require.NoError(t, err)
	require.Len(t, xs, 2)
	assert.Equal(t, 0.456, xs[0].PrimaryRatio)
	ts, err := data.ListTelemetry(context.Background(), db, t0)
	require.NoError(t, err)
	assert.Len(t, ts, 2)
}

func TestPollCanceled(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, a.run(ctx, "poll", nil, options{}))
}

func TestInfo(t *testing.T) {
	a, _, out := newTestApp(t)
	require.NoError(t, a.run(context.Background(), "info", nil, options{}))
	assert.Contains(t, out.String(), "BGA244")
	assert.Contains(t, out.String(), "Binary Gas Analyzer")
	assert.Contains(t, out.String(), "101.3 kPa")
}

func TestUnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.run(context.Background(), "warp", nil, options{}))
}
