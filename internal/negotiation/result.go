package negotiation

// ResultKind discriminates the NegotiationResult sum type.
type ResultKind int

const (
	ResultReady ResultKind = iota
	ResultNegotiating
	ResultReject
)

// NegotiationResult is what a Component returns from negotiate_step: the
// component is satisfied (Ready), wants another round (Negotiating), or
// refuses outright (Reject).
type NegotiationResult struct {
	Kind     ResultKind
	Proposal ProposalView
	Score    Score
	Reason   Reason
	Final    bool
}

// Ready builds a Ready result.
func Ready(proposal ProposalView, score Score) NegotiationResult {
	return NegotiationResult{Kind: ResultReady, Proposal: proposal, Score: score}
}

// Negotiating builds a Negotiating result.
func Negotiating(proposal ProposalView, score Score) NegotiationResult {
	return NegotiationResult{Kind: ResultNegotiating, Proposal: proposal, Score: score}
}

// Reject builds a Reject result.
func Reject(reason Reason, final bool) NegotiationResult {
	return NegotiationResult{Kind: ResultReject, Reason: reason, Final: final}
}

// AgreementResultKind discriminates AgreementResult.
type AgreementResultKind int

const (
	ApprovalFailed AgreementResultKind = iota
	ClosedByProvider
	ClosedByRequestor
	Broken
)

// AgreementResult reports how an Agreement finished.
type AgreementResult struct {
	Kind   AgreementResultKind
	Reason Reason
}

// AgreementEventKind discriminates AgreementEvent. This is the merged
// form: earlier revisions of the source split a separate
// PostTerminateEvent out from AgreementEvent; this implementation keeps
// the later, merged shape (see DESIGN.md).
type AgreementEventKind int

const (
	InvoiceAccepted AgreementEventKind = iota
	InvoicePaid
	InvoiceRejected
	UnableToTerminate
	ComputationFailure
	Custom
)

// AgreementEvent notifies components about things happening to an
// Agreement after its termination.
type AgreementEvent struct {
	Kind  AgreementEventKind
	Value any // populated for ComputationFailure and Custom
}
