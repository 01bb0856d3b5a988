package component

import (
	"context"
	"fmt"
	"time"

	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/negotiation"
)

const expirationKey = "/golem/srv/comp/expiration"

// LimitExpirationConfig configures LimitExpiration.
type LimitExpirationConfig struct {
	MinExpiration time.Duration `yaml:"min_expiration"`
	MaxExpiration time.Duration `yaml:"max_expiration"`
}

// LimitExpiration rejects proposals whose requested expiration falls
// outside a [now+min, now+max] window.
type LimitExpiration struct {
	Base
	minExpiration time.Duration
	maxExpiration time.Duration
}

// NewLimitExpiration builds a LimitExpiration from its yaml configuration.
func NewLimitExpiration(cfg LimitExpirationConfig) (*LimitExpiration, error) {
	return &LimitExpiration{
		minExpiration: cfg.MinExpiration,
		maxExpiration: cfg.MaxExpiration,
	}, nil
}

func proposalExpirationFrom(proposal *negotiation.ProposalView) (time.Time, error) {
	value, ok := proposal.Pointer(expirationKey)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", expirationKey, core.ErrMissingPointer)
	}
	millis, ok := asMillis(value)
	if !ok {
		return time.Time{}, fmt.Errorf("expiration key is not a timestamp: %v", value)
	}
	return time.UnixMilli(millis).UTC(), nil
}

func asMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func (c *LimitExpiration) NegotiateStep(_ context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	now := time.Now().UTC()
	minExpiration := now.Add(c.minExpiration)
	maxExpiration := now.Add(c.maxExpiration)

	expiration, err := proposalExpirationFrom(their)
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}

	if expiration.After(maxExpiration) || expiration.Before(minExpiration) {
		reason := negotiation.NewReason(fmt.Sprintf(
			"Proposal expires at: %s which is less than %s or more than %s from now",
			expiration, c.minExpiration, c.maxExpiration,
		))
		return negotiation.Reject(reason, true), nil
	}

	return negotiation.Ready(template, score), nil
}
