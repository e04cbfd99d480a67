package bgatest

import (
	"context"
	"testing"

	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimSession(t *testing.T) {
	ctx := context.Background()
	sim := New()
	c := bga.DefaultConfig("sim")
	c.Pause = 0
	s, err := bga.New(ctx, sim, c, gastable.Default(), nil)
	require.NoError(t, err)

	r, err := s.SetBinaryGases(ctx, gastable.Name("Argon"), gastable.Any("N2"))
	require.NoError(t, err)
	assert.False(t, r.Mismatch())

	sim.Set("RATO 1", "0.456")
	ratio, err := s.BinaryRatio(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.456, ratio.Primary)
	assert.Equal(t, "Argon", ratio.Gases.Primary)

	require.NoError(t, s.Close())
	assert.True(t, sim.Closed())
	assert.Contains(t, sim.Requests(), "GASP 7440-37-1")
}
