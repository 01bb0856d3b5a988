package engine

import (
	"context"

	"github.com/negotiator/engine/internal/collection"
	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/logging"
)

// Run drains the merged feedback stream of both collections until ctx is
// cancelled, translating each Action into either a collection decide or
// an outbox action. Actions are processed in arrival order; within one
// collection, Decide actions resolved from NewScored always precede the
// accepts/rejects they produce, since Decide itself enqueues them
// synchronously before returning.
func (e *Engine) Run(ctx context.Context) {
	proposalFeedback := e.proposals.Feedback()
	agreementFeedback := e.agreements.Feedback()

	for {
		select {
		case <-ctx.Done():
			return
		case action := <-proposalFeedback:
			e.handleProposalFeedback(action)
		case action := <-agreementFeedback:
			e.handleAgreementFeedback(action)
		}
	}
}

func (e *Engine) handleProposalFeedback(action collection.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch action.Kind {
	case collection.ActionDecide:
		e.proposals.Decide()
	case collection.ActionAccept:
		subId, ok := e.proposalSubs[action.Id]
		if !ok {
			logging.Warn("proposal [%s]: %s", action.Id, core.ErrUnknownSubscription)
			return
		}
		e.outboxProposal <- ProposalAction{Kind: AcceptProposal, Id: action.Id, SubscriptionId: subId}
	case collection.ActionReject:
		subId, ok := e.proposalSubs[action.Id]
		if !ok {
			logging.Warn("proposal [%s]: %s", action.Id, core.ErrUnknownSubscription)
			return
		}
		e.outboxProposal <- ProposalAction{
			Kind: RejectProposal, Id: action.Id, SubscriptionId: subId,
			Reason: action.Reason, Final: action.Final,
		}
	}
}

func (e *Engine) handleAgreementFeedback(action collection.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch action.Kind {
	case collection.ActionDecide:
		e.agreements.Decide()
	case collection.ActionAccept:
		agreementId, ok := e.proposalAgreement[action.Id]
		if !ok {
			logging.Warn("proposal [%s]: %s", action.Id, core.ErrUnknownProposal)
			return
		}
		delete(e.proposalAgreement, action.Id)
		subId, ok := e.agreementSubs[agreementId]
		if !ok {
			logging.Warn("agreement [%s]: %s", agreementId, core.ErrUnknownAgreement)
			return
		}
		e.outboxAgreement <- AgreementAction{Kind: ApproveAgreement, Id: agreementId, SubscriptionId: subId}
	case collection.ActionReject:
		agreementId, ok := e.proposalAgreement[action.Id]
		if !ok {
			logging.Warn("proposal [%s]: %s", action.Id, core.ErrUnknownProposal)
			return
		}
		if action.Final {
			delete(e.proposalAgreement, action.Id)
		}
		subId, ok := e.agreementSubs[agreementId]
		if !ok {
			logging.Warn("agreement [%s]: %s", agreementId, core.ErrUnknownAgreement)
			return
		}
		e.outboxAgreement <- AgreementAction{
			Kind: RejectAgreement, Id: agreementId, SubscriptionId: subId,
			Reason: action.Reason,
		}
	}
}
