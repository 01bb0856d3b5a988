// Package engine implements the orchestrator that translates market
// events into component calls and component outputs into relay actions.
// State mutation is serialized through Engine's mutex so that the chain
// and both collections are, in effect, owned by a single logical task —
// mirroring the cooperative single-task scheduling of the system this
// engine is modeled on.
package engine

import (
	"context"
	"sync"

	"github.com/negotiator/engine/internal/chain"
	"github.com/negotiator/engine/internal/collection"
	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/logging"
	"github.com/negotiator/engine/internal/negotiation"
)

// Engine is the per-peer orchestrator: one chain, one proposal
// collection, one agreement collection, and the correspondence tables
// linking proposal ids, subscriptions and agreement ids.
type Engine struct {
	mu sync.Mutex

	chain       *chain.Chain
	proposals   *collection.Collection
	agreements  *collection.Collection

	outboxProposal  chan ProposalAction
	outboxAgreement chan AgreementAction

	proposalSubs      map[core.ProposalId]core.SubscriptionId
	proposalAgreement map[core.ProposalId]core.AgreementId
	agreementSubs     map[core.AgreementId]core.SubscriptionId
}

// New assembles an Engine from an already-built chain and the two
// collection instances the factory wires up.
func New(c *chain.Chain, proposals, agreements *collection.Collection) *Engine {
	return &Engine{
		chain:             c,
		proposals:         proposals,
		agreements:        agreements,
		outboxProposal:    make(chan ProposalAction, 64),
		outboxAgreement:   make(chan AgreementAction, 64),
		proposalSubs:      map[core.ProposalId]core.SubscriptionId{},
		proposalAgreement: map[core.ProposalId]core.AgreementId{},
		agreementSubs:     map[core.AgreementId]core.SubscriptionId{},
	}
}

// ProposalActions is the outbound proposal-axis stream the relay
// collaborator should drain.
func (e *Engine) ProposalActions() <-chan ProposalAction { return e.outboxProposal }

// AgreementActions is the outbound agreement-axis stream the relay
// collaborator should drain.
func (e *Engine) AgreementActions() <-chan AgreementAction { return e.outboxAgreement }

// CreateOffer runs the chain's fill_template fold over a fresh template.
func (e *Engine) CreateOffer(ctx context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.FillTemplate(ctx, template)
}

// ReactToProposal is the main pump: negotiate the incoming proposal
// against our previous response and dispatch by result and state.
func (e *Engine) ReactToProposal(ctx context.Context, subscriptionId core.SubscriptionId, incoming, ourPrev negotiation.ProposalView) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.proposalSubs[incoming.Id] = subscriptionId

	their := incoming
	result, err := e.chain.NegotiateStep(ctx, &their, ourPrev, negotiation.NewScore())
	if err != nil {
		return err
	}

	switch result.Kind {
	case negotiation.ResultReject:
		e.outboxProposal <- ProposalAction{
			Kind: RejectProposal, Id: incoming.Id, SubscriptionId: subscriptionId,
			Reason: result.Reason, Final: result.Final,
		}
	case negotiation.ResultReady:
		switch their.State {
		case negotiation.ProposalInitial:
			e.outboxProposal <- ProposalAction{
				Kind: CounterProposal, Id: incoming.Id, SubscriptionId: subscriptionId,
				Proposal: result.Proposal,
			}
		case negotiation.ProposalDraft:
			score := result.Score.FinalScore()
			entry := collection.Entry{Their: their, Our: result.Proposal, Score: score}
			if err := e.proposals.NewScored(entry); err != nil {
				logging.Warn("proposal [%s] could not be scored: %v", incoming.Id, err)
			}
		default:
			logging.Warn("chain returned Ready for proposal [%s] in unexpected state %s", incoming.Id, their.State)
		}
	case negotiation.ResultNegotiating:
		e.outboxProposal <- ProposalAction{
			Kind: CounterProposal, Id: incoming.Id, SubscriptionId: subscriptionId,
			Proposal: result.Proposal,
		}
	}
	return nil
}

// ReactToAgreement negotiates a proposed agreement; only Ready leads to
// the agreement collection, since the agreement phase must be terminal.
func (e *Engine) ReactToAgreement(ctx context.Context, subscriptionId core.SubscriptionId, agreement negotiation.AgreementView) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.proposalAgreement[agreement.Demand.Id] = agreement.Id
	e.agreementSubs[agreement.Id] = subscriptionId

	their := agreement.Demand
	result, err := e.chain.NegotiateStep(ctx, &their, agreement.Offer, negotiation.NewScore())
	if err != nil {
		return err
	}

	switch result.Kind {
	case negotiation.ResultReady:
		score := result.Score.FinalScore()
		entry := collection.Entry{Their: their, Our: result.Proposal, Score: score}
		if err := e.agreements.NewScored(entry); err != nil {
			logging.Warn("agreement [%s] could not be scored: %v", agreement.Id, err)
		}
	case negotiation.ResultReject:
		e.outboxAgreement <- AgreementAction{
			Kind: RejectAgreement, Id: agreement.Id, SubscriptionId: subscriptionId,
			Reason: result.Reason,
		}
	case negotiation.ResultNegotiating:
		reason := negotiation.NewReason("Negotiations aren't finished").WithFinal(true)
		e.outboxAgreement <- AgreementAction{
			Kind: RejectAgreement, Id: agreement.Id, SubscriptionId: subscriptionId,
			Reason: reason,
		}
	}
	return nil
}

// AgreementSigned fans an approval notification out to every component.
func (e *Engine) AgreementSigned(ctx context.Context, agreement negotiation.AgreementView) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.OnAgreementApproved(ctx, agreement)
}

// AgreementFinalized fans a termination notification out to every
// component.
func (e *Engine) AgreementFinalized(ctx context.Context, id core.AgreementId, result negotiation.AgreementResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.OnAgreementTerminated(ctx, string(id), result)
}

// ProposalRejected fans a rejection notification out to every component.
func (e *Engine) ProposalRejected(ctx context.Context, id core.ProposalId) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.OnProposalRejected(ctx, string(id))
}

// PostAgreementEvent fans a post-termination event out to every
// component.
func (e *Engine) PostAgreementEvent(ctx context.Context, id core.AgreementId, event negotiation.AgreementEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.OnAgreementEvent(ctx, string(id), event)
}

// ControlEvent delegates to the named component.
func (e *Engine) ControlEvent(ctx context.Context, component string, params any) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chain.ControlEvent(ctx, component, params)
}

// RequestAgreements raises the agreement collection's goal by n.
func (e *Engine) RequestAgreements(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agreements.SetGoal(negotiation.Limit(n))
}
