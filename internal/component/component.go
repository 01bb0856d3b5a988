// Package component defines the unit of negotiation logic that the chain
// composes: the Component interface and the built-in components shipped
// alongside the engine (AcceptAll, LimitExpiration, MaxAgreements).
package component

import (
	"context"

	"github.com/negotiator/engine/internal/negotiation"
)

// Component implements negotiation logic for one narrow concern of an
// Agreement specification. Components are kept as granular as possible so
// the chain can compose many of them into one negotiation strategy.
//
// Every method has a default, transparent behavior: the zero-value
// embedding of Base satisfies Component by passing proposals through
// unchanged, so a component only needs to override what it cares about.
type Component interface {
	// NegotiateStep evaluates an incoming proposal against our running
	// template and score, returning how far negotiation can proceed.
	// A component must only touch the part of the template it owns and
	// pass the rest through unchanged.
	NegotiateStep(ctx context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error)

	// FillTemplate is called during Offer/Demand creation; a component
	// adds whatever properties and constraints it is responsible for.
	FillTemplate(ctx context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error)

	// OnAgreementTerminated notifies a component that an Agreement ended,
	// so it can adjust future negotiation strategy.
	OnAgreementTerminated(ctx context.Context, agreementId string, result negotiation.AgreementResult) error

	// OnAgreementApproved notifies a component that an Agreement was
	// approved or proposed. It is a notification only; the component can
	// no longer reject it.
	OnAgreementApproved(ctx context.Context, agreement negotiation.AgreementView) error

	// OnProposalRejected notifies a component that the other party
	// rejected one of our proposals.
	OnProposalRejected(ctx context.Context, proposalId string) error

	// OnAgreementEvent notifies a component about something that
	// happened to an Agreement after its termination.
	OnAgreementEvent(ctx context.Context, agreementId string, event negotiation.AgreementEvent) error

	// ControlEvent lets an operator query or steer a component directly,
	// addressed by name.
	ControlEvent(ctx context.Context, name string, params any) (any, error)
}

// Base implements Component with the transparent defaults described on
// each method; embed it in a component that only needs to override a
// handful of methods.
type Base struct{}

func (Base) NegotiateStep(_ context.Context, _ *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	return negotiation.Ready(template, score), nil
}

func (Base) FillTemplate(_ context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	return template, nil
}

func (Base) OnAgreementTerminated(_ context.Context, _ string, _ negotiation.AgreementResult) error {
	return nil
}

func (Base) OnAgreementApproved(_ context.Context, _ negotiation.AgreementView) error {
	return nil
}

func (Base) OnProposalRejected(_ context.Context, _ string) error {
	return nil
}

func (Base) OnAgreementEvent(_ context.Context, _ string, _ negotiation.AgreementEvent) error {
	return nil
}

func (Base) ControlEvent(_ context.Context, _ string, _ any) (any, error) {
	return nil, nil
}
