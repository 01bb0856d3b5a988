// Package rpc implements the gRPC subprocess plugin transport: the
// three-method wire protocol (CreateNegotiator, CallNegotiator,
// ShutdownNegotiator), a JSON grpc codec so the protocol can be
// expressed with plain Go structs, and the per-binary subprocess
// supervisor that memoizes one connection per plugin path.
package rpc

import (
	"encoding/json"

	"github.com/negotiator/engine/internal/negotiation"
)

// MessageKind discriminates NegotiationMessage, the tagged request sum
// type sent on every CallNegotiator.
type MessageKind string

const (
	MessageFillTemplate         MessageKind = "FillTemplate"
	MessageNegotiateStep        MessageKind = "NegotiateStep"
	MessageAgreementSigned      MessageKind = "AgreementSigned"
	MessageAgreementTerminated  MessageKind = "AgreementTerminated"
	MessageProposalRejected     MessageKind = "ProposalRejected"
	MessageAgreementEvent       MessageKind = "AgreementEvent"
	MessageControlEvent         MessageKind = "ControlEvent"
)

// NegotiationMessage is the NegotiatorComponent API expressed as a
// tagged enum, serialized to JSON and carried inside CallNegotiator.
type NegotiationMessage struct {
	Kind MessageKind `json:"kind"`

	Template negotiation.OfferTemplate `json:"template,omitempty"`

	Their            negotiation.ProposalView `json:"their,omitempty"`
	ProposalTemplate negotiation.ProposalView `json:"proposal_template,omitempty"`
	Score            negotiation.Score        `json:"score,omitempty"`

	Agreement negotiation.AgreementView `json:"agreement,omitempty"`

	AgreementId string                      `json:"agreement_id,omitempty"`
	Result      negotiation.AgreementResult `json:"result,omitempty"`

	ProposalId string             `json:"proposal_id,omitempty"`
	Reason     negotiation.Reason `json:"reason,omitempty"`

	Event negotiation.AgreementEvent `json:"event,omitempty"`

	Component string          `json:"component,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// ResponseKind discriminates NegotiationResponse.
type ResponseKind string

const (
	ResponseOfferTemplate     ResponseKind = "OfferTemplate"
	ResponseNegotiationResult ResponseKind = "NegotiationResult"
	ResponseGeneric           ResponseKind = "Generic"
	ResponseEmpty             ResponseKind = "Empty"
)

// NegotiationResponse is the tagged response sum type returned from
// CallNegotiator.
type NegotiationResponse struct {
	Kind ResponseKind `json:"kind"`

	OfferTemplate negotiation.OfferTemplate   `json:"offer_template,omitempty"`
	Result        negotiation.NegotiationResult `json:"result,omitempty"`
	Generic       json.RawMessage             `json:"generic,omitempty"`
}

// CreateRequest is CreateNegotiator's request payload.
type CreateRequest struct {
	Name       string          `json:"name"`
	ParamsYAML string          `json:"params_yaml"`
	WorkingDir string          `json:"working_dir"`
}

// CreateResponse is CreateNegotiator's response payload.
type CreateResponse struct {
	Id string `json:"id"`
}

// CallRequest is CallNegotiator's request payload.
type CallRequest struct {
	Id          string `json:"id"`
	MessageJSON string `json:"message_json"`
}

// CallResponse is CallNegotiator's response payload. The plugin's own
// application-level error, if any, travels in-band so gRPC transport
// retries never fire on a negotiator-local failure.
type CallResponse struct {
	ResponseJSON string `json:"response_json"`
	Error        string `json:"error,omitempty"`
}

// ShutdownRequest is ShutdownNegotiator's request payload.
type ShutdownRequest struct {
	Id             string `json:"id"`
	TimeoutSeconds int64  `json:"timeout_seconds"`
}

// ShutdownResponse is ShutdownNegotiator's (empty) response payload.
type ShutdownResponse struct{}
