// Package bga drives a BGA244 binary gas analyzer over its serial remote
// interface.
//
// A Session owns the line to the instrument. Every operation is a sequence of
// strict write-then-read exchanges; the protocol has no request identifiers,
// so operations are serialized behind one lock and never pipelined.
package bga

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/codec"
	"github.com/fpawel/bga244/internal/comport"
	"github.com/fpawel/bga244/internal/gastable"
	"github.com/powerman/structlog"
)

// State of a session.
type State int

const (
	Connecting State = iota
	Ready
	Closed
)

func (x State) String() string {
	switch x {
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state %d", int(x))
	}
}

// Session is a connection to one instrument. It is safe for concurrent use;
// operations run one at a time.
type Session struct {
	mu           sync.Mutex
	rw           comport.LineReadWriter
	cfg          Config
	table        *gastable.Table
	log          *structlog.Logger
	state        State
	lastExchange time.Time
	startupError string
}

// Open opens the serial port of cfg and connects a session over it.
func Open(ctx context.Context, cfg Config, table *gastable.Table, log *structlog.Logger) (*Session, error) {
	if err := cfg.Port.Validate(); err != nil {
		return nil, err
	}
	port, err := comport.Open(cfg.Port)
	if err != nil {
		return nil, err
	}
	return New(ctx, port, cfg, table, log)
}

// New connects a session over an already open line. The session takes
// ownership of rw and closes it if the connection check fails.
func New(ctx context.Context, rw comport.LineReadWriter, cfg Config, table *gastable.Table, log *structlog.Logger) (*Session, error) {
	if log == nil {
		log = structlog.New()
	}
	if err := cfg.Validate(); err != nil {
		log.ErrIfFail(rw.Close)
		return nil, err
	}
	if table == nil {
		log.ErrIfFail(rw.Close)
		return nil, merry.New("gas table must be set")
	}
	x := &Session{
		rw:    rw,
		cfg:   cfg.clone(),
		table: table,
		log:   log.New(structlog.KeyUnit, cfg.Port.Name),
		state: Connecting,
	}
	s, err := x.lastError(ctx)
	if err != nil {
		x.state = Closed
		x.log.PrintErr("connection check failed", "err", err)
		x.log.ErrIfFail(rw.Close)
		return nil, err
	}
	x.startupError = s
	if s != "" {
		x.log.Info("buffered error", "error", s)
	}
	x.state = Ready
	x.log.Debug("connected")
	return x, nil
}

// State reports the current state.
func (x *Session) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// StartupError is the error the instrument had buffered when the session
// connected, empty if none.
func (x *Session) StartupError() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.startupError
}

// Table is the gas table the session resolves gases with.
func (x *Session) Table() *gastable.Table { return x.table }

// Close releases the line. A closed session can not be reopened.
func (x *Session) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.state == Closed {
		return nil
	}
	x.state = Closed
	x.log.Debug("close")
	return x.rw.Close()
}

// ErrClosed is returned by every operation of a closed session.
var ErrClosed = merry.New("session closed")

// VerificationError reports a setting the instrument did not take.
type VerificationError struct {
	Command string
	Want    string
	Got     string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: wrote %q, read back %q", e.Command, e.Want, e.Got)
}

// begin locks the session for one operation. The returned function unlocks.
func (x *Session) begin() (func(), error) {
	x.mu.Lock()
	if x.state != Ready {
		x.mu.Unlock()
		return nil, ErrClosed
	}
	return x.mu.Unlock, nil
}

// wait holds until the inter-command pause since the previous exchange has
// elapsed.
func (x *Session) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return merry.Wrap(err)
	}
	d := time.Until(x.lastExchange.Add(x.cfg.Pause))
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return merry.Wrap(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (x *Session) write(ctx context.Context, request []byte) error {
	if err := x.wait(ctx); err != nil {
		return err
	}
	defer func() {
		x.lastExchange = time.Now()
	}()
	return x.rw.WriteLine(request)
}

func (x *Session) exchange(ctx context.Context, request []byte) (string, error) {
	if err := x.wait(ctx); err != nil {
		return "", err
	}
	defer func() {
		x.lastExchange = time.Now()
	}()
	if err := x.rw.WriteLine(request); err != nil {
		return "", err
	}
	return x.rw.ReadLine()
}

func (x *Session) set(ctx context.Context, c codec.Command, args ...string) error {
	request, err := c.Set(args...)
	if err != nil {
		return err
	}
	return x.write(ctx, request)
}

func (x *Session) query(ctx context.Context, c codec.Command, args ...string) (string, error) {
	request, err := c.Query(args...)
	if err != nil {
		return "", err
	}
	return x.exchange(ctx, request)
}

func (x *Session) queryFloat(ctx context.Context, c codec.Command, args ...string) (float64, error) {
	s, err := x.query(ctx, c, args...)
	if err != nil {
		return 0, err
	}
	return c.DecodeFloat(s)
}

func (x *Session) queryInt(ctx context.Context, c codec.Command, args ...string) (int, error) {
	s, err := x.query(ctx, c, args...)
	if err != nil {
		return 0, err
	}
	return c.DecodeInt(s)
}

func (x *Session) queryBool(ctx context.Context, c codec.Command, args ...string) (bool, error) {
	s, err := x.query(ctx, c, args...)
	if err != nil {
		return false, err
	}
	return c.DecodeBool(s)
}

func (x *Session) queryString(ctx context.Context, c codec.Command, args ...string) (string, error) {
	s, err := x.query(ctx, c, args...)
	if err != nil {
		return "", err
	}
	return c.DecodeString(s)
}

// lastError reads the buffered error; "0" and an empty line both mean none.
func (x *Session) lastError(ctx context.Context) (string, error) {
	s, err := x.query(ctx, codec.LastError)
	if err != nil {
		return "", err
	}
	if s == "0" {
		s = ""
	}
	return s, nil
}
