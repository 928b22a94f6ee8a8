package main

import (
	"fmt"
	"os"

	"github.com/rerdavies/pipedal-go/pkg/pedalboard"
	"github.com/rerdavies/pipedal-go/pkg/plugin"
	"gopkg.in/yaml.v3"
)

// sessionConfig is the on-disk session description this reference binary
// understands: device geometry plus a flat chain of plugin items. The
// original's filesystem-based preset/bank/project format is explicitly out
// of scope (spec.md §1); this is a minimal stand-in covering just enough
// of Pedalboard/Item to exercise the compiler end to end.
type sessionConfig struct {
	SampleRate     float64       `yaml:"sample_rate"`
	BufferSize     int           `yaml:"buffer_size"`
	InputChannels  int           `yaml:"input_channels"`
	OutputChannels int           `yaml:"output_channels"`
	InputVolumeDB  float64       `yaml:"input_volume_db"`
	OutputVolumeDB float64       `yaml:"output_volume_db"`
	Name           string       `yaml:"name"`
	Items          []itemConfig `yaml:"items"`
}

type itemConfig struct {
	URI      string             `yaml:"uri"`
	Enabled  bool               `yaml:"enabled"`
	Controls map[string]float64 `yaml:"controls"`
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		SampleRate:     48000,
		BufferSize:     256,
		InputChannels:  1,
		OutputChannels: 1,
		Name:           "default",
		Items: []itemConfig{
			{URI: demoGainURI, Enabled: true, Controls: map[string]float64{"gain": 1}},
		},
	}
}

func loadSessionConfig(path string) (sessionConfig, error) {
	if path == "" {
		return defaultSessionConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sessionConfig{}, fmt.Errorf("reading session config: %w", err)
	}
	cfg := defaultSessionConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return sessionConfig{}, fmt.Errorf("parsing session config: %w", err)
	}
	return cfg, nil
}

// toPedalboard builds a declarative graph (spec.md §3) from the flat item
// list: every item becomes one plugin node in series, instance-ids
// assigned in order by the pedalboard's own counter.
func (c sessionConfig) toPedalboard() *pedalboard.Pedalboard {
	pb := pedalboard.NewPedalboard(c.Name)
	pb.InputVolumeDB = c.InputVolumeDB
	pb.OutputVolumeDB = c.OutputVolumeDB

	for _, item := range c.Items {
		controls := make([]plugin.ControlValue, 0, len(item.Controls))
		for symbol, value := range item.Controls {
			controls = append(controls, plugin.ControlValue{Symbol: symbol, Value: value})
		}
		pb.Items = append(pb.Items, pedalboard.Item{
			InstanceID:    pb.NextInstanceID(),
			Kind:          pedalboard.ItemPlugin,
			Enabled:       item.Enabled,
			URI:           item.URI,
			ControlValues: controls,
		})
	}
	return pb
}
