package cfgfile

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ansel1/merry"
)

type MarshalFunc = func(in interface{}) (out []byte, err error)
type UnmarshalFunc = func(in []byte, out interface{}) error

// F is a settings file. A relative name is resolved against the directory of
// the executable.
type F struct {
	name      string
	marshal   MarshalFunc
	unmarshal UnmarshalFunc
}

func New(name string, marshal MarshalFunc, unmarshal UnmarshalFunc) *F {
	return &F{
		name:      name,
		marshal:   marshal,
		unmarshal: unmarshal,
	}
}

func (x *F) Set(in interface{}) error {
	data, err := x.marshal(in)
	if err != nil {
		return x.err(err)
	}
	if err := ioutil.WriteFile(x.Filename(), data, 0666); err != nil {
		return x.err(err)
	}
	return nil
}

func (x *F) Get(out interface{}) error {
	data, err := ioutil.ReadFile(x.Filename())
	if err != nil {
		return err
	}
	if err := x.unmarshal(data, out); err != nil {
		return x.err(err)
	}
	return nil
}

// Exists reports whether the file is present.
func (x *F) Exists() bool {
	_, err := os.Stat(x.Filename())
	return err == nil
}

func (x *F) err(err error) error {
	return merry.Append(err, x.Filename())
}

func (x *F) Filename() string {
	if filepath.IsAbs(x.name) {
		return x.name
	}
	return filepath.Join(filepath.Dir(os.Args[0]), x.name)
}
