package gastable

import "fmt"

// Kind tells which form an ID value is written in.
type Kind int

const (
	// KindAny is raw user input, looked up in both sections.
	KindAny Kind = iota
	KindName
	KindRegistry
)

// ID identifies a gas either by name or by CAS registry number.
type ID struct {
	Kind  Kind
	Value string
}

func Name(s string) ID { return ID{Kind: KindName, Value: s} }

func CAS(s string) ID { return ID{Kind: KindRegistry, Value: s} }

func Any(s string) ID { return ID{Kind: KindAny, Value: s} }

func (x ID) String() string {
	switch x.Kind {
	case KindName:
		return fmt.Sprintf("name %q", x.Value)
	case KindRegistry:
		return fmt.Sprintf("CAS# %q", x.Value)
	default:
		return fmt.Sprintf("%q", x.Value)
	}
}
