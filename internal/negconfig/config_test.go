package negconfig

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

const sampleConfig = `
negotiators:
  - name: expiration
    load-mode:
      built-in: {}
    params:
      min_expiration: 30s
      max_expiration: 300s
  - name: remote
    load-mode:
      grpc: { path: /usr/local/bin/my-negotiator }
composite:
  proposals:
    collect-period: 5s
    collect-amount: 5
    goal: { batch: 10 }
  agreements:
    collect-period: 20s
    collect-amount: 5
    goal: { limit: 1 }
`

func TestLoadDecodesNegotiatorsAndLoadModes(t *testing.T) {
	cfg, err := Load([]byte(sampleConfig), yaml.Unmarshal)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Negotiators) != 2 {
		t.Fatalf("negotiators = %d, want 2", len(cfg.Negotiators))
	}
	if cfg.Negotiators[0].LoadMode.Kind != LoadBuiltIn {
		t.Errorf("first load mode = %v, want built-in", cfg.Negotiators[0].LoadMode.Kind)
	}
	if cfg.Negotiators[1].LoadMode.Kind != LoadGRPC {
		t.Errorf("second load mode = %v, want grpc", cfg.Negotiators[1].LoadMode.Kind)
	}
	if cfg.Negotiators[1].LoadMode.Path != "/usr/local/bin/my-negotiator" {
		t.Errorf("path = %q, want the configured binary path", cfg.Negotiators[1].LoadMode.Path)
	}
}

func TestLoadFillsShutdownTimeoutDefaultWhenAbsent(t *testing.T) {
	cfg, err := Load([]byte(sampleConfig), yaml.Unmarshal)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, n := range cfg.Negotiators {
		if n.ShutdownTimeout != DefaultShutdownTimeout {
			t.Errorf("negotiator %q shutdown timeout = %v, want default %v", n.Name, n.ShutdownTimeout, DefaultShutdownTimeout)
		}
	}
}

func TestLoadKeepsExplicitShutdownTimeout(t *testing.T) {
	const cfgYAML = `
negotiators:
  - name: remote
    load-mode:
      grpc: { path: /usr/local/bin/my-negotiator }
    shutdown-timeout: 30s
`
	cfg, err := Load([]byte(cfgYAML), yaml.Unmarshal)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Negotiators[0].ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout = %v, want 30s", cfg.Negotiators[0].ShutdownTimeout)
	}
}

func TestLoadFillsCompositeDefaultsWhenAbsent(t *testing.T) {
	cfg, err := Load([]byte("negotiators: []\n"), yaml.Unmarshal)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defaults := DefaultComposite()
	if cfg.Composite.Proposals.CollectPeriod != defaults.Proposals.CollectPeriod {
		t.Errorf("proposals collect period = %v, want default %v", cfg.Composite.Proposals.CollectPeriod, defaults.Proposals.CollectPeriod)
	}
	if cfg.Composite.Agreements.Goal.Limit == nil || *cfg.Composite.Agreements.Goal.Limit != 1 {
		t.Errorf("agreements goal = %+v, want default Limit(1)", cfg.Composite.Agreements.Goal)
	}
}
