package component

import (
	"context"
	"sync"

	"github.com/negotiator/engine/internal/negotiation"
)

// Guarded wraps a Component that is not safe for concurrent use (most
// hand-written components, and every plugin-backed one) behind a mutex, so
// the chain can call it from whichever goroutine is driving a negotiation
// without its own synchronization.
type Guarded struct {
	mu    sync.Mutex
	inner Component
}

// NewGuarded returns a Component that serializes every call into inner.
func NewGuarded(inner Component) *Guarded {
	return &Guarded{inner: inner}
}

func (g *Guarded) NegotiateStep(ctx context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.NegotiateStep(ctx, their, template, score)
}

func (g *Guarded) FillTemplate(ctx context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.FillTemplate(ctx, template)
}

func (g *Guarded) OnAgreementTerminated(ctx context.Context, agreementId string, result negotiation.AgreementResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.OnAgreementTerminated(ctx, agreementId, result)
}

func (g *Guarded) OnAgreementApproved(ctx context.Context, agreement negotiation.AgreementView) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.OnAgreementApproved(ctx, agreement)
}

func (g *Guarded) OnProposalRejected(ctx context.Context, proposalId string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.OnProposalRejected(ctx, proposalId)
}

func (g *Guarded) OnAgreementEvent(ctx context.Context, agreementId string, event negotiation.AgreementEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.OnAgreementEvent(ctx, agreementId, event)
}

func (g *Guarded) ControlEvent(ctx context.Context, name string, params any) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.ControlEvent(ctx, name, params)
}
