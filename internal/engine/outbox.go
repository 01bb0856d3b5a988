package engine

import (
	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/negotiation"
)

// ProposalActionKind discriminates the proposal-axis outbox actions.
type ProposalActionKind int

const (
	CounterProposal ProposalActionKind = iota
	AcceptProposal
	RejectProposal
)

// ProposalAction is emitted to the market-relay collaborator on the
// proposal axis.
type ProposalAction struct {
	Kind           ProposalActionKind
	Id             core.ProposalId
	SubscriptionId core.SubscriptionId
	Proposal       negotiation.ProposalView
	Reason         negotiation.Reason
	Final          bool
}

// AgreementActionKind discriminates the agreement-axis outbox actions.
type AgreementActionKind int

const (
	ApproveAgreement AgreementActionKind = iota
	RejectAgreement
)

// AgreementAction is emitted to the market-relay collaborator on the
// agreement axis.
type AgreementAction struct {
	Kind           AgreementActionKind
	Id             core.AgreementId
	SubscriptionId core.SubscriptionId
	Reason         negotiation.Reason
}
