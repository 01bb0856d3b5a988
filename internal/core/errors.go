// Package core defines identifiers and sentinel errors shared across the
// negotiation engine.
package core

import "errors"

// Sentinel errors for the closed set of engine-invariant failures.
// Plugin-local and transport failures are wrapped with fmt.Errorf at the
// call site instead of reusing these; these are reserved for conditions
// the engine itself must recognize and react to.
var (
	// ErrComponentNotFound is returned when a control event names a
	// component that was never added to the chain.
	ErrComponentNotFound = errors.New("component not found")

	// ErrScoreNotFinite is returned when a collection is asked to ingest
	// an entry whose score is NaN or +/-Inf.
	ErrScoreNotFinite = errors.New("score is not finite")

	// ErrUnknownSubscription is logged by the engine's feedback loop when
	// a proposal or agreement action needs a subscription id that was
	// never recorded.
	ErrUnknownSubscription = errors.New("unknown subscription id")

	// ErrUnknownProposal is logged by the engine's feedback loop when a
	// correspondence table lookup misses for a proposal id.
	ErrUnknownProposal = errors.New("unknown proposal id")

	// ErrUnknownAgreement is logged by the engine's feedback loop when a
	// correspondence table lookup misses for an agreement id.
	ErrUnknownAgreement = errors.New("unknown agreement id")

	// ErrMissingPointer is returned when a document lookup required by a
	// component (e.g. an expiration key) is absent.
	ErrMissingPointer = errors.New("missing key at pointer")

	// ErrInvalidLoadMode is returned by the factory when a negotiator
	// config names a load mode with no matching loader.
	ErrInvalidLoadMode = errors.New("invalid negotiator load mode")

	// ErrPluginClosed is returned by the gRPC subprocess supervisor when
	// a plugin client is requested after the supervisor was closed.
	ErrPluginClosed = errors.New("plugin handle is closed")
)

// NodeId identifies a peer (Provider or Requestor) on the market.
type NodeId string

// ProposalId identifies one ProposalView across its lifetime.
type ProposalId string

// AgreementId identifies a signed Agreement.
type AgreementId string

// SubscriptionId identifies the relay-side Offer/Demand subscription a
// proposal belongs to.
type SubscriptionId string
