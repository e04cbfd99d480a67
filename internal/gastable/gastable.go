// Package gastable resolves gases between their names and CAS registry numbers
// using the instrument's static gas table.
package gastable

import (
	_ "embed"
	"fmt"
	"io/ioutil"
	"os"
	"sort"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/pkg/must"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Table is an immutable bidirectional mapping between gas names and CAS
// registry numbers. It is safe for concurrent use.
type Table struct {
	nameToCAS map[string]string
	casToName map[string]string
}

type document struct {
	Gas map[string]string `yaml:"gas"`
	CAS map[string]string `yaml:"cas#"`
}

//go:embed gases.yaml
var defaultYaml []byte

// Default returns the table compiled into the binary.
func Default() *Table {
	t, err := Parse(defaultYaml)
	must.PanicIf(err)
	return t
}

// Load reads the table from a YAML file.
func Load(filename string) (*Table, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigLoadError{Source: filename, Err: merry.New("file not found")}
		}
		return nil, &ConfigLoadError{Source: filename, Err: merry.Wrap(err)}
	}
	t, err := parse(data)
	if err != nil {
		return nil, &ConfigLoadError{Source: filename, Err: err}
	}
	return t, nil
}

// Parse builds a table from YAML data holding two sections, "gas" (name to CAS#)
// and "cas#" (CAS# to name), which must be exact inverses.
func Parse(data []byte) (*Table, error) {
	t, err := parse(data)
	if err != nil {
		return nil, &ConfigLoadError{Source: "yaml", Err: err}
	}
	return t, nil
}

func parse(data []byte) (*Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, merry.Prepend(err, "malformed yaml")
	}
	if err := checkDuplicateKeys(&root); err != nil {
		return nil, err
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, merry.Prepend(err, "malformed yaml")
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Table{
		nameToCAS: doc.Gas,
		casToName: doc.CAS,
	}, nil
}

func (d document) validate() error {
	if len(d.Gas) == 0 {
		return merry.New(`section "gas" is missing or empty`)
	}
	if len(d.CAS) == 0 {
		return merry.New(`section "cas#" is missing or empty`)
	}
	var mErr *multierror.Error
	for _, name := range sortedKeys(d.Gas) {
		cas := d.Gas[name]
		switch back, f := d.CAS[cas]; {
		case !f:
			mErr = multierror.Append(mErr, merry.Errorf("gas %q: CAS# %q is not in section cas#", name, cas))
		case back != name:
			mErr = multierror.Append(mErr, merry.Errorf("gas %q: CAS# %q maps back to %q", name, cas, back))
		}
	}
	for _, cas := range sortedKeys(d.CAS) {
		name := d.CAS[cas]
		switch back, f := d.Gas[name]; {
		case !f:
			mErr = multierror.Append(mErr, merry.Errorf("CAS# %q: gas %q is not in section gas", cas, name))
		case back != cas:
			mErr = multierror.Append(mErr, merry.Errorf("CAS# %q: gas %q maps back to %q", cas, name, back))
		}
	}
	return mErr.ErrorOrNil()
}

func checkDuplicateKeys(n *yaml.Node) error {
	if n.Kind == yaml.MappingNode {
		seen := make(map[string]int)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if line, f := seen[k.Value]; f {
				return merry.Errorf("duplicate key %q at line %d, first defined at line %d", k.Value, k.Line, line)
			}
			seen[k.Value] = k.Line
		}
	}
	for _, c := range n.Content {
		if err := checkDuplicateKeys(c); err != nil {
			return err
		}
	}
	return nil
}

// Registry resolves id to its CAS registry number.
func (t *Table) Registry(id ID) (string, error) {
	if id.Kind != KindName {
		if _, f := t.casToName[id.Value]; f {
			return id.Value, nil
		}
	}
	if id.Kind != KindRegistry {
		if cas, f := t.nameToCAS[id.Value]; f {
			return cas, nil
		}
	}
	return "", &UnknownGasError{ID: id}
}

// Name resolves id to its gas name.
func (t *Table) Name(id ID) (string, error) {
	if id.Kind != KindRegistry {
		if _, f := t.nameToCAS[id.Value]; f {
			return id.Value, nil
		}
	}
	if id.Kind != KindName {
		if name, f := t.casToName[id.Value]; f {
			return name, nil
		}
	}
	return "", &UnknownGasError{ID: id}
}

// Names returns all gas names in lexical order.
func (t *Table) Names() []string {
	return sortedKeys(t.nameToCAS)
}

// Len returns the number of gases.
func (t *Table) Len() int {
	return len(t.nameToCAS)
}

func sortedKeys(m map[string]string) (xs []string) {
	for k := range m {
		xs = append(xs, k)
	}
	sort.Strings(xs)
	return
}

// ConfigLoadError reports a missing or invalid gas table.
type ConfigLoadError struct {
	Source string
	Err    error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("gas table %s: %v", e.Source, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// UnknownGasError reports a gas that is in neither section of the table.
type UnknownGasError struct {
	ID ID
}

func (e *UnknownGasError) Error() string {
	return fmt.Sprintf("unknown gas %s", e.ID)
}
