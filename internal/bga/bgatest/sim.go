// Package bgatest provides a simulated instrument for tests of code built on
// top of a bga session.
package bgatest

import (
	"strings"
	"sync"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/comport"
)

// Sim answers queries from a register of values. A set command "MNEM v"
// stores v so that "MNEM?" reads it back. A query with arguments, such as
// "RATO? 1", is looked up by its full text first and by its mnemonic next.
type Sim struct {
	mu      sync.Mutex
	values  map[string]string
	written []string
	reply   *string
	closed  bool
}

// New returns a simulator in the Binary Gas Analyzer mode measuring
// CO2 in N2.
func New() *Sim {
	return &Sim{
		values: map[string]string{
			"LERR":    "0",
			"*IDN":    "Stanford Research Systems,BGA244,s/n 001234,ver 1.08",
			"MODE":    "1",
			"CTYP":    "1",
			"GASP":    "124-38-9",
			"GASS":    "7727-37-9",
			"RATO 1":  "0.25",
			"RATO 2":  "0.75",
			"UNCT":    "0.001",
			"PRAM":    "101.3",
			"PRES":    "99.8",
			"TCEL":    "25.4",
			"SOSM":    "344.5",
			"BHEN":    "1",
			"BHMC":    "0.8",
			"BHST":    "40",
			"BHCU":    "0.12",
			"TEPL":    "39.9",
			"TPCB":    "31.2",
			"UNIT? 1": "%",
			"UNIT? 2": "m/s",
			"UNIT? 3": "C",
			"UNIT? 4": "kPa",
		},
	}
}

// Set stores the value answered to the query key, e.g. Set("RATO 1", "0.5").
func (x *Sim) Set(key, value string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.values[key] = value
}

// Requests returns the lines written so far without the terminator.
func (x *Sim) Requests() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.written...)
}

func (x *Sim) Closed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.closed
}

func (x *Sim) WriteLine(line []byte) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return comport.ErrPortClosed
	}
	s := strings.TrimSuffix(string(line), string(comport.Terminator))
	x.written = append(x.written, s)
	x.reply = nil

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	mnemonic := fields[0]
	if !strings.HasSuffix(mnemonic, "?") {
		if len(fields) > 1 {
			x.values[mnemonic] = strings.Join(fields[1:], " ")
		}
		return nil
	}
	mnemonic = strings.TrimSuffix(mnemonic, "?")
	for _, key := range []string{s, mnemonic + " " + strings.Join(fields[1:], " "), mnemonic} {
		if v, f := x.values[key]; f {
			x.reply = &v
			break
		}
	}
	return nil
}

func (x *Sim) ReadLine() (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.reply == nil {
		return "", &comport.TransportError{Op: "read", Port: "sim", Timeout: true, Err: merry.New("no response")}
	}
	s := *x.reply
	x.reply = nil
	return s, nil
}

func (x *Sim) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	return nil
}
