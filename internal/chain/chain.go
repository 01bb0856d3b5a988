// Package chain composes an ordered list of components into a single
// Component: negotiate_step folds across every member tracking readiness,
// fill_template folds left to right, and the remaining notification hooks
// fan out to every member best-effort, logging failures instead of
// propagating them.
package chain

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/logging"
	"github.com/negotiator/engine/internal/negotiation"
)

var suffixPattern = regexp.MustCompile(`#([0-9]+)$`)

// entry pairs a component with the unique name it was registered under.
type entry struct {
	name      string
	component component.Component
}

// Chain runs multiple components as one, preserving registration order.
type Chain struct {
	mu         sync.RWMutex
	components []entry
	names      map[string]component.Component
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{names: map[string]component.Component{}}
}

// uniqueName returns name, or name with a "#<n>" suffix advanced or
// appended until it no longer collides with an existing registration.
func (c *Chain) uniqueName(name string) string {
	for {
		if _, taken := c.names[name]; !taken {
			return name
		}
		if loc := suffixPattern.FindStringSubmatchIndex(name); loc != nil {
			// loc[2]:loc[3] is the captured digit run.
			var n int
			fmt.Sscanf(name[loc[2]:loc[3]], "%d", &n)
			name = name[:loc[0]] + fmt.Sprintf("#%d", n+1)
		} else {
			name = name + "#1"
		}
	}
}

// Add registers a component under name, renaming it with a numeric suffix
// if the name is already taken (e.g. "Foo" then "Foo#1" then "Foo#2").
func (c *Chain) Add(name string, comp component.Component) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	name = c.uniqueName(name)
	c.components = append(c.components, entry{name: name, component: comp})
	c.names[name] = comp
	return c
}

// List returns the registered component names in registration order.
func (c *Chain) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.components))
	for i, e := range c.components {
		names[i] = e.name
	}
	return names
}

// Get returns the component registered under name, if any.
func (c *Chain) Get(name string) (component.Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	comp, ok := c.names[name]
	return comp, ok
}

func (c *Chain) snapshot() []entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entry, len(c.components))
	copy(out, c.components)
	return out
}

// NegotiateStep runs every component in order. The chain is Ready only if
// every component returned Ready; any component returning Negotiating
// keeps the whole chain in that state, and any Reject short-circuits the
// fold immediately.
func (c *Chain) NegotiateStep(ctx context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	allReady := true
	for _, e := range c.snapshot() {
		result, err := e.component.NegotiateStep(ctx, their, template, score)
		if err != nil {
			return negotiation.NegotiationResult{}, err
		}
		switch result.Kind {
		case negotiation.ResultReady:
			template = result.Proposal
			score = result.Score
		case negotiation.ResultNegotiating:
			logging.Component(e.name).Info("still negotiating proposal [%s]", their.Id)
			allReady = false
			template = result.Proposal
			score = result.Score
		case negotiation.ResultReject:
			return negotiation.Reject(result.Reason, result.Final), nil
		}
	}

	if allReady {
		return negotiation.Ready(template, score), nil
	}
	return negotiation.Negotiating(template, score), nil
}

// FillTemplate threads the template through every component in order,
// each one adding the properties and constraints it owns.
func (c *Chain) FillTemplate(ctx context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	for _, e := range c.snapshot() {
		filled, err := e.component.FillTemplate(ctx, template)
		if err != nil {
			return negotiation.OfferTemplate{}, fmt.Errorf("component %s failed filling offer template: %w", e.name, err)
		}
		template = filled
	}
	return template, nil
}

// OnAgreementTerminated notifies every component; a failing component is
// logged and skipped rather than aborting the fan-out.
func (c *Chain) OnAgreementTerminated(ctx context.Context, agreementId string, result negotiation.AgreementResult) error {
	for _, e := range c.snapshot() {
		if err := e.component.OnAgreementTerminated(ctx, agreementId, result); err != nil {
			logging.Component(e.name).Warn("failed handling agreement [%s] termination: %v", agreementId, err)
		}
	}
	return nil
}

// OnAgreementApproved notifies every component, best-effort.
func (c *Chain) OnAgreementApproved(ctx context.Context, agreement negotiation.AgreementView) error {
	for _, e := range c.snapshot() {
		if err := e.component.OnAgreementApproved(ctx, agreement); err != nil {
			logging.Component(e.name).Warn("failed handling agreement [%s] approval: %v", agreement.Id, err)
		}
	}
	return nil
}

// OnProposalRejected notifies every component, best-effort.
func (c *Chain) OnProposalRejected(ctx context.Context, proposalId string) error {
	for _, e := range c.snapshot() {
		if err := e.component.OnProposalRejected(ctx, proposalId); err != nil {
			logging.Component(e.name).Warn("failed handling proposal [%s] rejection: %v", proposalId, err)
		}
	}
	return nil
}

// OnAgreementEvent notifies every component, best-effort.
func (c *Chain) OnAgreementEvent(ctx context.Context, agreementId string, event negotiation.AgreementEvent) error {
	for _, e := range c.snapshot() {
		if err := e.component.OnAgreementEvent(ctx, agreementId, event); err != nil {
			logging.Component(e.name).Warn("failed handling post-terminate event [%s]: %v", agreementId, err)
		}
	}
	return nil
}

// ControlEvent dispatches to the exact named component, returning
// core.ErrComponentNotFound if no component is registered under that
// name (a component that legitimately has nothing to report still
// returns a nil result with a nil error).
func (c *Chain) ControlEvent(ctx context.Context, name string, params any) (any, error) {
	comp, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, core.ErrComponentNotFound)
	}
	return comp.ControlEvent(ctx, name, params)
}
