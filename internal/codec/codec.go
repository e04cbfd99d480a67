// Package codec formats BGA244 remote commands and parses their responses.
package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ansel1/merry"
)

// Kind is the type of value a command answers with.
type Kind int

const (
	None Kind = iota
	Int
	Float
	Bool
	String
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is one entry of the instrument's command table.
type Command struct {
	Mnemonic string
	// QueryArgs is the argument count of the query form, -1 if the command
	// can not be queried.
	QueryArgs int
	// SetArgs is the argument count of the set form, -1 if the command is
	// query only.
	SetArgs int
	Response Kind
	What     string
}

func (c Command) String() string { return c.Mnemonic }

// Query encodes the query form of c.
func (c Command) Query(args ...string) ([]byte, error) {
	if c.QueryArgs < 0 {
		return nil, merry.Errorf("%s can not be queried", c.Mnemonic)
	}
	if len(args) != c.QueryArgs {
		return nil, merry.Errorf("%s?: expected %d arguments, got %d", c.Mnemonic, c.QueryArgs, len(args))
	}
	return encode(c.Mnemonic+"?", args), nil
}

// Set encodes the set form of c.
func (c Command) Set(args ...string) ([]byte, error) {
	if c.SetArgs < 0 {
		return nil, merry.Errorf("%s is query only", c.Mnemonic)
	}
	if len(args) != c.SetArgs {
		return nil, merry.Errorf("%s: expected %d arguments, got %d", c.Mnemonic, c.SetArgs, len(args))
	}
	return encode(c.Mnemonic, args), nil
}

func encode(head string, args []string) []byte {
	var b bytes.Buffer
	b.WriteString(head)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteByte('\r')
	return b.Bytes()
}

// DecodeInt parses an integer response of c.
func (c Command) DecodeInt(raw string) (int, error) {
	s, err := c.nonEmpty(raw)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, c.protocolError(raw, merry.Wrap(err))
	}
	return v, nil
}

// DecodeFloat parses a floating point response of c.
func (c Command) DecodeFloat(raw string) (float64, error) {
	s, err := c.nonEmpty(raw)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, c.protocolError(raw, merry.Wrap(err))
	}
	return v, nil
}

// DecodeBool parses a 0/1 response of c.
func (c Command) DecodeBool(raw string) (bool, error) {
	s, err := c.nonEmpty(raw)
	if err != nil {
		return false, err
	}
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, c.protocolError(raw, merry.New("expected 0 or 1"))
	}
}

// DecodeString returns a non-empty response of c.
func (c Command) DecodeString(raw string) (string, error) {
	return c.nonEmpty(raw)
}

func (c Command) nonEmpty(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", c.protocolError(raw, merry.New("empty response"))
	}
	return s, nil
}

func (c Command) protocolError(raw string, err error) error {
	return &ProtocolError{Command: c.Mnemonic, Raw: raw, Err: err}
}

// FormatFloat formats a set argument without a trailing zero tail.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool formats a set argument as 0/1.
func FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// ProtocolError reports a response that does not parse as the command's
// expected value. Raw keeps the offending text.
type ProtocolError struct {
	Command string
	Raw     string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected response %q: %v", e.Command, e.Raw, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
