package input

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Electrodes() ([]Electrode, error)
	DefaultElectrode() (Electrode, error)
	Start(SessionConfig) (Session, error)
}

// OpenBackend is a backend that accepts electrodes it does not list, such as
// a file whose records name their own electrodes.
type OpenBackend interface {
	Backend
	NewElectrode(name string) Electrode
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// Get all installed backend names.
func GetAllBackendNames() []string {
	out := make([]string, len(Backends))
	for i, backend := range Backends {
		out[i] = backend.Name
	}
	return out
}

// DefaultBackend returns the backend used when none is given: the
// simulator if it is installed, the first registered backend otherwise.
func DefaultBackend() string {
	if HasBackend("synthetic") {
		return "synthetic"
	}

	if len(Backends) > 0 {
		return Backends[0].Name
	}

	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if the
// backend is not found. The registered value is returned as is, so optional
// interfaces such as OpenBackend stay visible.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend.Backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

func InitBackend(bknd string) (Backend, error) {
	backend := FindBackend(bknd)
	if backend == nil {
		return nil, fmt.Errorf("backend not found: %q; check list-backends", bknd)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize input backend")
	}

	logger.Debug("backend ready", zap.String("backend", bknd))

	return backend, nil
}

// GetElectrode finds an electrode by name, case-insensitive. An empty name
// returns the default electrode.
func GetElectrode(backend Backend, name string) (Electrode, error) {
	if name == "" {
		def, err := backend.DefaultElectrode()
		if err != nil {
			return Electrode{}, errors.Wrap(err, "failed to get default electrode")
		}
		return def, nil
	}

	electrodes, err := backend.Electrodes()
	if err != nil {
		return Electrode{}, errors.Wrap(err, "failed to get electrodes")
	}

	for idx := range electrodes {
		if strings.EqualFold(electrodes[idx].Name, name) {
			return electrodes[idx], nil
		}
	}

	if open, ok := backend.(OpenBackend); ok {
		return open.NewElectrode(name), nil
	}

	return Electrode{}, errors.Errorf("electrode %q not found; check list-electrodes", name)
}
