package component

import (
	"context"
	"fmt"

	"github.com/negotiator/engine/internal/negotiation"
)

// MaxAgreementsConfig configures MaxAgreements.
type MaxAgreementsConfig struct {
	MaxAgreements uint32 `yaml:"max_agreements"`
}

// MaxAgreements caps the number of concurrently active agreements,
// rejecting new proposals (non-finally) once the cap is reached.
type MaxAgreements struct {
	Base
	maxAgreements    uint32
	activeAgreements map[string]struct{}
}

// NewMaxAgreements builds a MaxAgreements from its yaml configuration.
func NewMaxAgreements(cfg MaxAgreementsConfig) (*MaxAgreements, error) {
	return &MaxAgreements{
		maxAgreements:    cfg.MaxAgreements,
		activeAgreements: map[string]struct{}{},
	}, nil
}

func (c *MaxAgreements) hasFreeSlot() bool {
	return uint32(len(c.activeAgreements)) < c.maxAgreements
}

func (c *MaxAgreements) NegotiateStep(_ context.Context, _ *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	if c.hasFreeSlot() {
		return negotiation.Ready(template, score), nil
	}
	reason := negotiation.NewReason(fmt.Sprintf(
		"No capacity available. Reached Agreements limit: %d", c.maxAgreements,
	))
	return negotiation.Reject(reason, false), nil
}

func (c *MaxAgreements) OnAgreementTerminated(_ context.Context, agreementId string, _ negotiation.AgreementResult) error {
	delete(c.activeAgreements, agreementId)
	return nil
}

func (c *MaxAgreements) OnAgreementApproved(_ context.Context, agreement negotiation.AgreementView) error {
	hadSlot := c.hasFreeSlot()
	c.activeAgreements[string(agreement.Id)] = struct{}{}
	if !hadSlot {
		return fmt.Errorf("agreement [%s] approved despite not available capacity", agreement.Id)
	}
	return nil
}
