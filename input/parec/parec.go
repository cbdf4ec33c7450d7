// Package parec detects spikes in a PulseAudio source, for electrodes wired
// into a sound card.
package parec

import (
	"fmt"

	"github.com/lawl/pulseaudio"
	"github.com/noriah/rateviewer/input"
	"github.com/noriah/rateviewer/input/common/execread"
	"github.com/pkg/errors"
)

// DefaultSampleRate is the capture rate used when none is configured.
const DefaultSampleRate = 44100.0

func init() {
	input.RegisterBackend("parec", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

// Electrodes lists the PulseAudio sources. Each source is its own stream.
func (p Backend) Electrodes() ([]input.Electrode, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	defer c.Close()

	s, err := c.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sources")
	}

	var electrodes = make([]input.Electrode, len(s))
	for i, source := range s {
		electrodes[i] = input.Electrode{
			Name:       source.Name,
			StreamID:   uint16(i + 1),
			SampleRate: DefaultSampleRate,
		}
	}

	return electrodes, nil
}

func (p Backend) DefaultElectrode() (input.Electrode, error) {
	return input.Electrode{Name: "default", SampleRate: DefaultSampleRate}, nil
}

func (p Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Args returns the parec command line for a session.
func Args(cfg input.SessionConfig) []string {
	return []string{
		"parec",
		"--format=float32le",
		fmt.Sprintf("--rate=%.0f", cfg.Rate()),
		"--channels=1",
		"-d", cfg.Electrode.Name,
	}
}

func NewSession(cfg input.SessionConfig) (*execread.Session, error) {
	if cfg.Electrode.Name == "" {
		return nil, errors.Wrap(input.ErrBadConfig, "no source given")
	}

	return execread.NewSession(Args(cfg), true, cfg)
}
