package bga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/codec"
	"github.com/fpawel/bga244/internal/comport"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/powerman/structlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLine answers each ReadLine with the next scripted reply; when the
// script is exhausted it times out like a silent instrument.
type fakeLine struct {
	mu      sync.Mutex
	written []string
	replies []reply
	at      []time.Time
	closed  bool
}

type reply struct {
	line string
	err  error
}

func (f *fakeLine) WriteLine(line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, string(line))
	f.at = append(f.at, time.Now())
	return nil
}

func (f *fakeLine) ReadLine() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "", &comport.TransportError{Op: "read", Port: "fake", Timeout: true, Err: merry.New("no response")}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.line, r.err
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

func (f *fakeLine) script(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range lines {
		f.replies = append(f.replies, reply{line: s})
	}
}

func (f *fakeLine) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func testConfig() Config {
	c := DefaultConfig("COM_TEST")
	c.Pause = 0
	return c
}

func newTestSession(t *testing.T, lines ...string) (*Session, *fakeLine) {
	t.Helper()
	f := new(fakeLine)
	f.script("0")
	s, err := New(context.Background(), f, testConfig(), gastable.Default(), structlog.New())
	require.NoError(t, err)
	f.written = nil
	f.at = nil
	f.script(lines...)
	return s, f
}

func TestConnect(t *testing.T) {
	f := new(fakeLine)
	f.script("-23")
	s, err := New(context.Background(), f, testConfig(), gastable.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, Ready, s.State())
	assert.Equal(t, "-23", s.StartupError())
	assert.Equal(t, []string{"LERR?\r"}, f.requests())
}

func TestConnectFails(t *testing.T) {
	f := new(fakeLine)
	_, err := New(context.Background(), f, testConfig(), gastable.Default(), nil)
	var e *comport.TransportError
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Timeout)
	assert.True(t, f.closed)
}

func TestSetMode(t *testing.T) {
	s, f := newTestSession(t)
	require.NoError(t, s.SetMode(context.Background(), BinaryGasAnalyzer))
	assert.Equal(t, []string{"MODE 1\r"}, f.requests())
}

func TestMode(t *testing.T) {
	s, _ := newTestSession(t, "3", "7")
	m, err := s.Mode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhysicalMeasurements, m)

	_, err = s.Mode(context.Background())
	var e *codec.ProtocolError
	assert.True(t, errors.As(err, &e))
}

func TestSetConcentrationType(t *testing.T) {
	ct, err := ParseConcentrationType("Mole Fraction")
	require.NoError(t, err)

	s, f := newTestSession(t, "1")
	require.NoError(t, s.SetConcentrationType(context.Background(), ct))
	assert.Equal(t, []string{"CTYP 1\r", "CTYP?\r"}, f.requests())

	s, _ = newTestSession(t, "2")
	err = s.SetConcentrationType(context.Background(), ct)
	var e *VerificationError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "1", e.Want)
	assert.Equal(t, "2", e.Got)
}

func TestGases(t *testing.T) {
	s, f := newTestSession(t, "7440-37-1", "132259-10-0")
	gases, err := s.Gases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GasPair{Primary: "Argon", Secondary: "N2-O2-Ar"}, gases)
	assert.Equal(t, []string{"GASP?\r", "GASS?\r"}, f.requests())
}

func TestGasesDrift(t *testing.T) {
	s, _ := newTestSession(t, "7440-37-1", "999-99-9")
	_, err := s.Gases(context.Background())
	var e *gastable.UnknownGasError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "999-99-9", e.ID.Value)
}

func TestSetGas(t *testing.T) {
	s, f := newTestSession(t)
	require.NoError(t, s.SetGas(context.Background(), gastable.Any("CO2")))
	require.NoError(t, s.SetGas(context.Background(), gastable.Any("7440-37-1")))
	assert.Equal(t, []string{"GASP 124-38-9\r", "GASP 7440-37-1\r"}, f.requests())
}

func TestSetGasUnknownWritesNothing(t *testing.T) {
	s, f := newTestSession(t)
	err := s.SetGas(context.Background(), gastable.Any("Unobtainium"))
	var e *gastable.UnknownGasError
	require.True(t, errors.As(err, &e))
	assert.Empty(t, f.requests())

	_, err = s.SetBinaryGases(context.Background(), gastable.Any("CO2"), gastable.Any("Unobtainium"))
	require.True(t, errors.As(err, &e))
	assert.Empty(t, f.requests())
}

func TestSetBinaryGases(t *testing.T) {
	s, f := newTestSession(t, "124-38-9", "132259-10-0")
	r, err := s.SetBinaryGases(context.Background(), gastable.Name("CO2"), gastable.CAS("132259-10-0"))
	require.NoError(t, err)
	assert.False(t, r.Mismatch())
	assert.Equal(t, GasPair{Primary: "CO2", Secondary: "N2-O2-Ar"}, r.Actual)
	assert.Equal(t, []string{
		"GASP 124-38-9\r",
		"GASS 132259-10-0\r",
		"GASP?\r",
		"GASS?\r",
	}, f.requests())
}

func TestSetBinaryGasesCoerced(t *testing.T) {
	s, _ := newTestSession(t, "124-38-9", "7727-37-9")
	r, err := s.SetBinaryGases(context.Background(), gastable.Any("CO2"), gastable.Any("N2-O2-Ar"))
	require.NoError(t, err)
	assert.True(t, r.Mismatch())
	assert.Equal(t, "N2-O2-Ar", r.Requested.Secondary)
	assert.Equal(t, "N2", r.Actual.Secondary)
}

func TestBinaryRatio(t *testing.T) {
	s, f := newTestSession(t, "7440-37-1", "132259-10-0", "0.456", "0.544", "0.01")
	r, err := s.BinaryRatio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"Argon":        0.456,
		"N2-O2-Ar":     0.544,
		KeyUncertainty: 0.01,
	}, r.Map())
	assert.Equal(t, []string{"GASP?\r", "GASS?\r", "RATO? 1\r", "RATO? 2\r", "UNCT?\r"}, f.requests())
}

func TestBinaryRatioNotANumber(t *testing.T) {
	s, f := newTestSession(t, "7440-37-1", "132259-10-0", "ERR", "0.544", "0.01")
	_, err := s.BinaryRatio(context.Background())
	var e *codec.ProtocolError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "ERR", e.Raw)
	assert.Len(t, f.requests(), 3)
}

func TestTelemetry(t *testing.T) {
	s, f := newTestSession(t, "101.3", "99.8", "25.4")
	r, err := s.Telemetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Telemetry{
		AmbientPressure:  101.3,
		AnalysisPressure: 99.8,
		CellTemperature:  25.4,
		PressureUnit:     "kPa",
		TemperatureUnit:  "C",
	}, r)
	assert.Equal(t, []string{"PRAM? kPa\r", "PRES? kPa\r", "TCEL? C\r"}, f.requests())
}

func TestTimeout(t *testing.T) {
	s, _ := newTestSession(t, "101.3")
	_, err := s.Telemetry(context.Background())
	var e *comport.TransportError
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Timeout)
}

func TestBlockStatus(t *testing.T) {
	s, f := newTestSession(t, "1", "2.5", "45", "0.8", "44.9", "31.2")
	r, err := s.BlockStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BlockStatus{
		Enabled:             true,
		MaxCurrent:          2.5,
		SetPoint:            45,
		Current:             0.8,
		EndplateTemperature: 44.9,
		PCBTemperature:      31.2,
	}, r)
	assert.Equal(t, []string{"BHEN?\r", "BHMC?\r", "BHST?\r", "BHCU?\r", "TEPL?\r", "TPCB?\r"}, f.requests())
}

func TestBlockStatusAbortsOnFirstFailure(t *testing.T) {
	s, f := newTestSession(t, "1", "2.5", "?", "0.8", "44.9", "31.2")
	r, err := s.BlockStatus(context.Background())
	var e *codec.ProtocolError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, BlockStatus{}, r)
	assert.Len(t, f.requests(), 3)
}

func TestHeaterSetters(t *testing.T) {
	s, f := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.SetHeaterEnabled(ctx, true))
	require.NoError(t, s.SetHeaterMaxCurrent(ctx, 1.5))
	require.NoError(t, s.SetHeaterSetPoint(ctx, 40))
	assert.Equal(t, []string{"BHEN 1\r", "BHMC 1.5\r", "BHST 40\r"}, f.requests())
}

func TestUnits(t *testing.T) {
	s, f := newTestSession(t, "%", "m/s", "C", "kPa")
	r, err := s.Units(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ratio": "%", "speed": "m/s", "temperature": "C", "pressure": "kPa",
	}, r.Map())
	assert.Equal(t, []string{"UNIT? 1\r", "UNIT? 2\r", "UNIT? 3\r", "UNIT? 4\r"}, f.requests())
}

func TestSetHomeScreen(t *testing.T) {
	s, f := newTestSession(t)
	require.NoError(t, s.SetHomeScreen(context.Background()))
	assert.Equal(t, []string{"HOME\r"}, f.requests())
	assert.Empty(t, f.replies)
}

func TestClosed(t *testing.T) {
	s, f := newTestSession(t, "1")
	require.NoError(t, s.Close())
	assert.True(t, f.closed)
	assert.Equal(t, Closed, s.State())
	require.NoError(t, s.Close())

	err := s.SetMode(context.Background(), BinaryGasAnalyzer)
	assert.True(t, merry.Is(err, ErrClosed))
	_, err = s.BinaryRatio(context.Background())
	assert.True(t, merry.Is(err, ErrClosed))
	assert.Empty(t, f.requests())
}

func TestPause(t *testing.T) {
	f := new(fakeLine)
	f.script("0", "1", "2", "3")
	c := testConfig()
	c.Pause = 20 * time.Millisecond
	s, err := New(context.Background(), f, c, gastable.Default(), nil)
	require.NoError(t, err)
	_, err = s.Units(context.Background())
	// the fourth unit query times out: script exhausted
	require.Error(t, err)
	require.Len(t, f.at, 5)
	for i := 1; i < len(f.at); i++ {
		assert.GreaterOrEqual(t, int64(f.at[i].Sub(f.at[i-1])), int64(c.Pause))
	}
}

func TestPauseHonorsContext(t *testing.T) {
	f := new(fakeLine)
	f.script("0")
	c := testConfig()
	c.Pause = time.Hour
	s, err := New(context.Background(), f, c, gastable.Default(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = s.SetMode(ctx, BinaryGasAnalyzer)
	assert.True(t, merry.Is(err, context.DeadlineExceeded))
	assert.Len(t, f.requests(), 1)
}

func TestConcurrentOperationsDoNotInterleave(t *testing.T) {
	s, f := newTestSession(t)
	const n = 10
	for i := 0; i < n; i++ {
		f.script("7440-37-1", "132259-10-0", "0.5", "0.5", "0.01")
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.BinaryRatio(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "Argon", r.Gases.Primary)
		}()
	}
	wg.Wait()
	xs := f.requests()
	require.Len(t, xs, 5*n)
	for i := 0; i < n; i++ {
		assert.Equal(t, []string{"GASP?\r", "GASS?\r", "RATO? 1\r", "RATO? 2\r", "UNCT?\r"}, xs[5*i:5*i+5])
	}
}

func TestParseNames(t *testing.T) {
	m, err := ParseMode("binary gas analyzer")
	require.NoError(t, err)
	assert.Equal(t, BinaryGasAnalyzer, m)
	_, err = ParseMode("bga")
	assert.Error(t, err)

	ct, err := ParseConcentrationType("Mass Fraction")
	require.NoError(t, err)
	assert.Equal(t, MassFraction, ct)
	ct, err = ParseConcentrationType(" MOLE ")
	require.NoError(t, err)
	assert.Equal(t, MoleFraction, ct)
	_, err = ParseConcentrationType("volume")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig("COM1").Validate())

	c := DefaultConfig("COM1")
	c.ModeCodes[GasPurityAnalyzer] = 1
	assert.Error(t, c.Validate())

	c = DefaultConfig("COM1")
	delete(c.ConcentrationCodes, MassFraction)
	assert.Error(t, c.Validate())
}
