package input

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend struct {
	electrodes []Electrode
	initErr    error
	inits      int
}

func (b *testBackend) Init() error {
	b.inits++
	return b.initErr
}

func (b *testBackend) Close() error {
	return nil
}

func (b *testBackend) Electrodes() ([]Electrode, error) {
	return b.electrodes, nil
}

func (b *testBackend) DefaultElectrode() (Electrode, error) {
	return b.electrodes[0], nil
}

func (b *testBackend) Start(SessionConfig) (Session, error) {
	return nil, errors.New("not startable")
}

type testOpenBackend struct {
	testBackend
}

func (b *testOpenBackend) NewElectrode(name string) Electrode {
	return Electrode{Name: name, SampleRate: 1000}
}

// withBackends swaps the registry for the duration of a test.
func withBackends(t *testing.T) {
	saved := Backends
	Backends = nil
	t.Cleanup(func() { Backends = saved })
}

var testElectrodes = []Electrode{
	{Name: "tet0", StreamID: 0, SampleRate: 30000},
	{Name: "Tet1", StreamID: 1, SampleRate: 20000},
}

func TestRegistry(t *testing.T) {
	assert := assert.New(t)
	withBackends(t)

	assert.Equal("", DefaultBackend())
	assert.Nil(FindBackend("fixed"))
	assert.False(HasBackend("fixed"))

	fixed := &testBackend{electrodes: testElectrodes}
	open := &testOpenBackend{testBackend{electrodes: testElectrodes}}

	RegisterBackend("fixed", fixed)
	RegisterBackend("open", open)

	assert.Equal([]string{"fixed", "open"}, GetAllBackendNames())
	assert.Equal("fixed", DefaultBackend())
	assert.True(HasBackend("open"))

	// the registered value comes back unwrapped
	assert.Same(fixed, FindBackend("fixed"))
	_, isOpen := FindBackend("open").(OpenBackend)
	assert.True(isOpen)

	RegisterBackend("synthetic", &testBackend{electrodes: testElectrodes})
	assert.Equal("synthetic", DefaultBackend())
}

func TestInitBackend(t *testing.T) {
	assert := assert.New(t)
	withBackends(t)

	good := &testBackend{electrodes: testElectrodes}
	bad := &testBackend{initErr: errors.New("no device")}
	RegisterBackend("good", good)
	RegisterBackend("bad", bad)

	b, err := InitBackend("good")
	require.NoError(t, err)
	assert.Same(good, b)
	assert.Equal(1, good.inits)

	_, err = InitBackend("bad")
	assert.Error(err)

	_, err = InitBackend("missing")
	assert.Error(err)
}

func TestGetElectrode(t *testing.T) {
	assert := assert.New(t)
	withBackends(t)

	RegisterBackend("fixed", &testBackend{electrodes: testElectrodes})
	RegisterBackend("open", &testOpenBackend{testBackend{electrodes: testElectrodes}})

	fixed, err := InitBackend("fixed")
	require.NoError(t, err)

	e, err := GetElectrode(fixed, "")
	require.NoError(t, err)
	assert.Equal(testElectrodes[0], e)

	e, err = GetElectrode(fixed, "TET1")
	require.NoError(t, err)
	assert.Equal(testElectrodes[1], e)

	_, err = GetElectrode(fixed, "tet9")
	assert.Error(err)

	// open backends accept names they do not list, through the registry too
	open, err := InitBackend("open")
	require.NoError(t, err)

	e, err = GetElectrode(open, "tet9")
	require.NoError(t, err)
	assert.Equal(Electrode{Name: "tet9", SampleRate: 1000}, e)

	e, err = GetElectrode(open, "tet0")
	require.NoError(t, err)
	assert.Equal(testElectrodes[0], e)
}

func TestSessionConfigRate(t *testing.T) {
	cfg := SessionConfig{Electrode: Electrode{SampleRate: 30000}}
	assert.Equal(t, 30000.0, cfg.Rate())

	cfg.SampleRate = 1000
	assert.Equal(t, 1000.0, cfg.Rate())
}

func TestBlockLast(t *testing.T) {
	assert.Equal(t, int64(150), Block{FirstSample: 100, Count: 50}.Last())
}
