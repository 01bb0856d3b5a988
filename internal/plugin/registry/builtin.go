package registry

import (
	"fmt"
	"time"

	"github.com/negotiator/engine/internal/component"
)

const builtinLibrary = "builtin"

func init() {
	Register(builtinLibrary, "AcceptAll", func(_ string, config map[string]any) (component.Component, error) {
		return component.NewAcceptAll(config)
	})

	Register(builtinLibrary, "LimitExpiration", func(_ string, config map[string]any) (component.Component, error) {
		cfg, err := decodeLimitExpiration(config)
		if err != nil {
			return nil, err
		}
		return component.NewLimitExpiration(cfg)
	})

	Register(builtinLibrary, "MaxAgreements", func(_ string, config map[string]any) (component.Component, error) {
		cfg, err := decodeMaxAgreements(config)
		if err != nil {
			return nil, err
		}
		return component.NewMaxAgreements(cfg)
	})
}

func decodeLimitExpiration(config map[string]any) (component.LimitExpirationConfig, error) {
	var cfg component.LimitExpirationConfig
	minRaw, ok := config["min_expiration"]
	if !ok {
		return cfg, fmt.Errorf("missing min_expiration")
	}
	maxRaw, ok := config["max_expiration"]
	if !ok {
		return cfg, fmt.Errorf("missing max_expiration")
	}
	min, err := asDuration(minRaw)
	if err != nil {
		return cfg, fmt.Errorf("min_expiration: %w", err)
	}
	max, err := asDuration(maxRaw)
	if err != nil {
		return cfg, fmt.Errorf("max_expiration: %w", err)
	}
	cfg.MinExpiration = min
	cfg.MaxExpiration = max
	return cfg, nil
}

func decodeMaxAgreements(config map[string]any) (component.MaxAgreementsConfig, error) {
	var cfg component.MaxAgreementsConfig
	raw, ok := config["max_agreements"]
	if !ok {
		return cfg, fmt.Errorf("missing max_agreements")
	}
	switch n := raw.(type) {
	case int:
		cfg.MaxAgreements = uint32(n)
	case int64:
		cfg.MaxAgreements = uint32(n)
	case float64:
		cfg.MaxAgreements = uint32(n)
	default:
		return cfg, fmt.Errorf("max_agreements has unexpected type %T", raw)
	}
	return cfg, nil
}

// asDuration accepts either a Go duration string ("30s") or a plain
// number of seconds, matching the humantime-flavored durations the
// upstream configuration format uses.
func asDuration(v any) (time.Duration, error) {
	switch n := v.(type) {
	case string:
		return time.ParseDuration(n)
	case int:
		return time.Duration(n) * time.Second, nil
	case int64:
		return time.Duration(n) * time.Second, nil
	case float64:
		return time.Duration(n * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unexpected duration type %T", v)
	}
}
