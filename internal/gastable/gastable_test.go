package gastable

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	table := Default()
	require.NotZero(t, table.Len())
	for _, name := range table.Names() {
		cas, err := table.Registry(Name(name))
		require.NoError(t, err)
		back, err := table.Name(CAS(cas))
		require.NoError(t, err)
		assert.Equal(t, name, back)

		cas2, err := table.Registry(Any(back))
		require.NoError(t, err)
		assert.Equal(t, cas, cas2)
	}
}

func TestIdempotent(t *testing.T) {
	table := Default()
	for _, name := range table.Names() {
		cas, err := table.Registry(Name(name))
		require.NoError(t, err)

		got, err := table.Registry(CAS(cas))
		require.NoError(t, err)
		assert.Equal(t, cas, got)

		got, err = table.Name(Name(name))
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
}

func TestKnownEntries(t *testing.T) {
	table := Default()
	cas, err := table.Registry(Any("Argon"))
	require.NoError(t, err)
	assert.Equal(t, "7440-37-1", cas)

	name, err := table.Name(Any("132259-10-0"))
	require.NoError(t, err)
	assert.Equal(t, "N2-O2-Ar", name)
}

func TestUnknownGas(t *testing.T) {
	table := Default()
	for _, id := range []ID{Name("Unobtainium"), CAS("0-00-0"), Any("argon"), Name("7440-37-1"), CAS("Argon")} {
		_, err := table.Registry(id)
		var e *UnknownGasError
		require.True(t, errors.As(err, &e), "%v", id)
		assert.Equal(t, id, e.ID)

		_, err = table.Name(id)
		require.True(t, errors.As(err, &e), "%v", id)
	}
}

func TestParseInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"empty":      ``,
		"malformed":  "gas: [",
		"no cas":     "gas:\n  Argon: 7440-37-1\n",
		"asymmetric": "gas:\n  Argon: 7440-37-1\ncas#:\n  7440-37-1: Ar\n",
		"missing":    "gas:\n  Argon: 7440-37-1\n  He: 7440-59-7\ncas#:\n  7440-37-1: Argon\n",
		"duplicate":  "gas:\n  Argon: 7440-37-1\n  Argon: 7440-37-1\ncas#:\n  7440-37-1: Argon\n",
		"shared cas": "gas:\n  Argon: 7440-37-1\n  Ar: 7440-37-1\ncas#:\n  7440-37-1: Argon\n",
	} {
		_, err := Parse([]byte(data))
		var e *ConfigLoadError
		assert.True(t, errors.As(err, &e), "%s: %v", name, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	var e *ConfigLoadError
	require.True(t, errors.As(err, &e))

	filename := filepath.Join(dir, "gases.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte("gas:\n  He: 7440-59-7\ncas#:\n  7440-59-7: He\n"), 0666))
	table, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"He"}, table.Names())
}

func TestConcurrentReads(t *testing.T) {
	table := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range table.Names() {
				cas, err := table.Registry(Name(name))
				assert.NoError(t, err)
				_, err = table.Name(CAS(cas))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
