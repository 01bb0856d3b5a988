// Package negconfig holds the YAML-shaped configuration structs the
// factory assembles a chain and its collections from. This package owns
// only the shapes and their defaults; decoding the YAML itself is left
// to an injected function so the package doesn't need to import a YAML
// library directly — the CLI supplies gopkg.in/yaml.v3 at the edge.
package negconfig

import (
	"fmt"
	"time"
)

// LoadModeKind discriminates how a negotiator component is loaded.
type LoadModeKind string

const (
	LoadBuiltIn       LoadModeKind = "built-in"
	LoadStaticLib     LoadModeKind = "static-lib"
	LoadSharedLibrary LoadModeKind = "shared-library"
	LoadGRPC          LoadModeKind = "grpc"
	LoadRemoteGRPC    LoadModeKind = "remote-grpc"
)

// LoadMode selects one of the plugin transports for a single negotiator
// component entry.
type LoadMode struct {
	Kind LoadModeKind `yaml:"-"`

	// Library names the in-process registry entry for static-lib.
	Library string `yaml:"library,omitempty"`
	// Path is the shared-library or gRPC-subprocess binary path.
	Path string `yaml:"path,omitempty"`
	// Address is the host:port of an already-running remote-grpc plugin.
	Address string `yaml:"address,omitempty"`
}

// UnmarshalYAML accepts the tagged-union shape from §6's configuration
// format: exactly one of built-in | static-lib | shared-library | grpc |
// remote-grpc keys is present.
func (m *LoadMode) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		BuiltIn       *struct{}          `yaml:"built-in"`
		StaticLib     *struct{ Library string `yaml:"library"` } `yaml:"static-lib"`
		SharedLibrary *struct{ Path string `yaml:"path"` }       `yaml:"shared-library"`
		GRPC          *struct{ Path string `yaml:"path"` }       `yaml:"grpc"`
		RemoteGRPC    *struct{ Address string `yaml:"address"` } `yaml:"remote-grpc"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch {
	case raw.BuiltIn != nil:
		m.Kind = LoadBuiltIn
	case raw.StaticLib != nil:
		m.Kind = LoadStaticLib
		m.Library = raw.StaticLib.Library
	case raw.SharedLibrary != nil:
		m.Kind = LoadSharedLibrary
		m.Path = raw.SharedLibrary.Path
	case raw.GRPC != nil:
		m.Kind = LoadGRPC
		m.Path = raw.GRPC.Path
	case raw.RemoteGRPC != nil:
		m.Kind = LoadRemoteGRPC
		m.Address = raw.RemoteGRPC.Address
	default:
		return fmt.Errorf("load-mode must name exactly one of built-in, static-lib, shared-library, grpc, remote-grpc")
	}
	return nil
}

// DefaultShutdownTimeout bounds a negotiator's shutdown RPC when its
// entry leaves shutdown-timeout unset.
const DefaultShutdownTimeout = 5 * time.Second

// NegotiatorConfig is one entry under the top-level negotiators list.
type NegotiatorConfig struct {
	Name     string         `yaml:"name"`
	LoadMode LoadMode       `yaml:"load-mode"`
	Params   map[string]any `yaml:"params"`

	// ShutdownTimeout bounds how long a remote (grpc, remote-grpc)
	// negotiator gets to complete its shutdown RPC before the engine
	// drops it regardless.
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

// GoalConfig is the tagged union { limit: n } | { batch: n } for a
// collection's selection target.
type GoalConfig struct {
	Limit *int `yaml:"limit,omitempty"`
	Batch *int `yaml:"batch,omitempty"`
}

// CollectionConfig configures one of the composite's two collection
// instances.
type CollectionConfig struct {
	CollectPeriod time.Duration `yaml:"collect-period"`
	CollectAmount int           `yaml:"collect-amount"`
	Goal          GoalConfig    `yaml:"goal"`
}

// CompositeNegotiatorConfig configures the two engine-owned collections.
type CompositeNegotiatorConfig struct {
	Proposals  CollectionConfig `yaml:"proposals"`
	Agreements CollectionConfig `yaml:"agreements"`
}

// NegotiatorsConfig is the top-level configuration document the factory
// consumes.
type NegotiatorsConfig struct {
	Negotiators []NegotiatorConfig        `yaml:"negotiators"`
	Composite   CompositeNegotiatorConfig `yaml:"composite"`
}

// DefaultComposite returns the documented defaults: proposals batch up
// to 10 every 5s or after 5 arrive; agreements approve one at a time,
// deciding every 20s or after 5 arrive.
func DefaultComposite() CompositeNegotiatorConfig {
	batch := 10
	limit := 1
	return CompositeNegotiatorConfig{
		Proposals: CollectionConfig{
			CollectPeriod: 5 * time.Second,
			CollectAmount: 5,
			Goal:          GoalConfig{Batch: &batch},
		},
		Agreements: CollectionConfig{
			CollectPeriod: 20 * time.Second,
			CollectAmount: 5,
			Goal:          GoalConfig{Limit: &limit},
		},
	}
}

// Decoder decodes raw YAML bytes into v; the CLI supplies
// yaml.Unmarshal so this package never imports a YAML library directly.
type Decoder func(data []byte, v any) error

// Load decodes data into a NegotiatorsConfig using decode, then fills in
// the composite defaults for any collection left at its zero value.
func Load(data []byte, decode Decoder) (NegotiatorsConfig, error) {
	var cfg NegotiatorsConfig
	if err := decode(data, &cfg); err != nil {
		return NegotiatorsConfig{}, fmt.Errorf("decode negotiators config: %w", err)
	}

	defaults := DefaultComposite()
	if cfg.Composite.Proposals.CollectPeriod == 0 && cfg.Composite.Proposals.Goal.Limit == nil && cfg.Composite.Proposals.Goal.Batch == nil {
		cfg.Composite.Proposals = defaults.Proposals
	}
	if cfg.Composite.Agreements.CollectPeriod == 0 && cfg.Composite.Agreements.Goal.Limit == nil && cfg.Composite.Agreements.Goal.Batch == nil {
		cfg.Composite.Agreements = defaults.Agreements
	}

	for i := range cfg.Negotiators {
		if cfg.Negotiators[i].ShutdownTimeout == 0 {
			cfg.Negotiators[i].ShutdownTimeout = DefaultShutdownTimeout
		}
	}

	return cfg, nil
}
