// Package dynlib implements the stable-ABI shared-library plugin
// transport: a component loaded with the standard library's plugin
// package, whose every call crosses the ABI boundary as a JSON string
// so the loaded library can be compiled independently of the engine
// binary.
//
// Go has no equivalent of an ABI-stable trait object, so the boundary
// here is the coarsest one Go actually offers: a looked-up symbol whose
// signature is plain strings in, (string, error) out. JSON is the
// compatibility shield on both sides of that call, exactly as it is for
// the gRPC transport.
package dynlib

import (
	"context"
	"encoding/json"
	"fmt"
	"plugin"

	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/negotiation"
)

// EntryPointSymbol is the single exported root-module entry point every
// shared library must provide.
const EntryPointSymbol = "CreateNegotiator"

// EntryPoint is the shared library's exported constructor: build a
// negotiator instance addressed purely through JSON-string calls.
type EntryPoint func(name string, configYAML string, workingDir string) (Handle, error)

// Handle is the ABI-stable surface a loaded library returns: every
// method takes and returns JSON-encoded strings (or, for the
// notification-only hooks, just an error).
type Handle interface {
	NegotiateStep(theirJSON, templateJSON, scoreJSON string) (string, error)
	FillTemplate(propertiesJSON, constraints string) (string, error)
	OnAgreementTerminated(agreementId, resultJSON string) error
	OnAgreementApproved(agreementJSON string) error
	OnProposalRejected(proposalId string) error
	OnAgreementEvent(agreementId, eventJSON string) error
	ControlEvent(name, paramsJSON string) (string, error)
}

// Load opens the .so at path and resolves its entry point.
func Load(path string) (EntryPoint, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shared library %s: %w", path, err)
	}
	sym, err := p.Lookup(EntryPointSymbol)
	if err != nil {
		return nil, fmt.Errorf("shared library %s has no %s symbol: %w", path, EntryPointSymbol, err)
	}
	entry, ok := sym.(func(string, string, string) (Handle, error))
	if !ok {
		return nil, fmt.Errorf("shared library %s exports %s with the wrong signature", path, EntryPointSymbol)
	}
	return EntryPoint(entry), nil
}

// Component adapts a Handle to component.Component, marshaling and
// unmarshaling the JSON every call crosses the ABI boundary with.
type Component struct {
	component.Base
	handle Handle
}

// Wrap returns a Component backed by an already-constructed Handle.
func Wrap(handle Handle) *Component {
	return &Component{handle: handle}
}

func marshalString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Component) NegotiateStep(_ context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	theirJSON, err := marshalString(their)
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}
	templateJSON, err := marshalString(template)
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}
	scoreJSON, err := marshalString(score)
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}

	resultJSON, err := c.handle.NegotiateStep(theirJSON, templateJSON, scoreJSON)
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}

	var result negotiation.NegotiationResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return negotiation.NegotiationResult{}, fmt.Errorf("decode negotiate_step result: %w", err)
	}
	return result, nil
}

func (c *Component) FillTemplate(_ context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	propertiesJSON, err := marshalString(template.Properties)
	if err != nil {
		return negotiation.OfferTemplate{}, err
	}

	resultJSON, err := c.handle.FillTemplate(propertiesJSON, template.Constraints)
	if err != nil {
		return negotiation.OfferTemplate{}, err
	}

	var result negotiation.OfferTemplate
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return negotiation.OfferTemplate{}, fmt.Errorf("decode fill_template result: %w", err)
	}
	return result, nil
}

func (c *Component) OnAgreementTerminated(_ context.Context, agreementId string, result negotiation.AgreementResult) error {
	resultJSON, err := marshalString(result)
	if err != nil {
		return err
	}
	return c.handle.OnAgreementTerminated(agreementId, resultJSON)
}

func (c *Component) OnAgreementApproved(_ context.Context, agreement negotiation.AgreementView) error {
	agreementJSON, err := marshalString(agreement)
	if err != nil {
		return err
	}
	return c.handle.OnAgreementApproved(agreementJSON)
}

func (c *Component) OnProposalRejected(_ context.Context, proposalId string) error {
	return c.handle.OnProposalRejected(proposalId)
}

func (c *Component) OnAgreementEvent(_ context.Context, agreementId string, event negotiation.AgreementEvent) error {
	eventJSON, err := marshalString(event)
	if err != nil {
		return err
	}
	return c.handle.OnAgreementEvent(agreementId, eventJSON)
}

func (c *Component) ControlEvent(_ context.Context, name string, params any) (any, error) {
	paramsJSON, err := marshalString(params)
	if err != nil {
		return nil, err
	}

	resultJSON, err := c.handle.ControlEvent(name, paramsJSON)
	if err != nil {
		return nil, err
	}
	if resultJSON == "" {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("decode control_event result: %w", err)
	}
	return result, nil
}
