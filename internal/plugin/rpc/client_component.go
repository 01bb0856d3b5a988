package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/negotiation"
)

// Component adapts a remote negotiator instance, addressed by its
// server-assigned id, to the local component.Component interface. Every
// call marshals a tagged NegotiationMessage, invokes CallNegotiator, and
// decodes the tagged NegotiationResponse. An application-level error
// from the remote negotiator travels in CallResponse.Error rather than
// as a transport failure, so it is surfaced here as a plain Go error
// instead of a gRPC status.
type Component struct {
	component.Base

	client *Client
	id     string
}

// NewComponent wraps a remote negotiator id behind the local interface.
func NewComponent(client *Client, id string) *Component {
	return &Component{client: client, id: id}
}

func (c *Component) call(ctx context.Context, msg NegotiationMessage) (NegotiationResponse, error) {
	encoded, err := json.Marshal(msg)
	if err != nil {
		return NegotiationResponse{}, fmt.Errorf("encode negotiation message: %w", err)
	}

	resp, err := c.client.CallNegotiator(ctx, &CallRequest{Id: c.id, MessageJSON: string(encoded)})
	if err != nil {
		return NegotiationResponse{}, fmt.Errorf("call negotiator: %w", err)
	}
	if resp.Error != "" {
		return NegotiationResponse{}, fmt.Errorf("%s", resp.Error)
	}

	var decoded NegotiationResponse
	if err := json.Unmarshal([]byte(resp.ResponseJSON), &decoded); err != nil {
		return NegotiationResponse{}, fmt.Errorf("decode negotiation response: %w", err)
	}
	return decoded, nil
}

func (c *Component) NegotiateStep(ctx context.Context, their *negotiation.ProposalView, template negotiation.ProposalView, score negotiation.Score) (negotiation.NegotiationResult, error) {
	resp, err := c.call(ctx, NegotiationMessage{
		Kind:             MessageNegotiateStep,
		Their:            *their,
		ProposalTemplate: template,
		Score:            score,
	})
	if err != nil {
		return negotiation.NegotiationResult{}, err
	}
	if resp.Kind != ResponseNegotiationResult {
		return negotiation.NegotiationResult{}, fmt.Errorf("unexpected response kind %q for negotiate_step", resp.Kind)
	}
	return resp.Result, nil
}

func (c *Component) FillTemplate(ctx context.Context, template negotiation.OfferTemplate) (negotiation.OfferTemplate, error) {
	resp, err := c.call(ctx, NegotiationMessage{Kind: MessageFillTemplate, Template: template})
	if err != nil {
		return negotiation.OfferTemplate{}, err
	}
	if resp.Kind != ResponseOfferTemplate {
		return negotiation.OfferTemplate{}, fmt.Errorf("unexpected response kind %q for fill_template", resp.Kind)
	}
	return resp.OfferTemplate, nil
}

func (c *Component) OnAgreementTerminated(ctx context.Context, agreementId string, result negotiation.AgreementResult) error {
	_, err := c.call(ctx, NegotiationMessage{Kind: MessageAgreementTerminated, AgreementId: agreementId, Result: result})
	return err
}

func (c *Component) OnAgreementApproved(ctx context.Context, agreement negotiation.AgreementView) error {
	_, err := c.call(ctx, NegotiationMessage{Kind: MessageAgreementSigned, Agreement: agreement})
	return err
}

func (c *Component) OnProposalRejected(ctx context.Context, proposalId string) error {
	_, err := c.call(ctx, NegotiationMessage{Kind: MessageProposalRejected, ProposalId: proposalId})
	return err
}

func (c *Component) OnAgreementEvent(ctx context.Context, agreementId string, event negotiation.AgreementEvent) error {
	_, err := c.call(ctx, NegotiationMessage{Kind: MessageAgreementEvent, AgreementId: agreementId, Event: event})
	return err
}

// Shutdown asks the remote negotiator to release its resources,
// carrying ctx's remaining deadline (if any) as the RPC's
// TimeoutSeconds so the subprocess bounds its own cleanup the same way.
func (c *Component) Shutdown(ctx context.Context) error {
	var timeoutSeconds int64
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			timeoutSeconds = int64(remaining.Seconds())
		}
	}
	_, err := c.client.ShutdownNegotiator(ctx, &ShutdownRequest{Id: c.id, TimeoutSeconds: timeoutSeconds})
	return err
}

func (c *Component) ControlEvent(ctx context.Context, name string, params any) (any, error) {
	encodedParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode control params: %w", err)
	}
	resp, err := c.call(ctx, NegotiationMessage{Kind: MessageControlEvent, Component: name, Params: encodedParams})
	if err != nil {
		return nil, err
	}
	if resp.Kind != ResponseGeneric {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(resp.Generic, &out); err != nil {
		return nil, fmt.Errorf("decode control response: %w", err)
	}
	return out, nil
}
