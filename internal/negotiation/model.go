// Package negotiation holds the wire-level data model shared by every
// negotiator component, the chain, the collection layer and the engine:
// offer templates, proposal/agreement views, scores, reasons and the
// sum-type results components return.
package negotiation

import (
	"time"

	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/document"
)

// OfferTemplate is the unit a component fills in during offer creation:
// a nested properties tree plus an opaque constraints expression.
type OfferTemplate struct {
	Properties  any    `json:"properties"`
	Constraints string `json:"constraints"`
}

// NewOfferTemplate returns an empty template ready for components to fill.
func NewOfferTemplate() OfferTemplate {
	return OfferTemplate{Properties: map[string]any{}}
}

// Doc returns a document view over the template's properties.
func (t OfferTemplate) Doc() *document.Document {
	return document.New(t.Properties)
}

// WithDoc returns a copy of the template with its properties replaced by
// the (possibly mutated) document's root.
func (t OfferTemplate) WithDoc(doc *document.Document) OfferTemplate {
	t.Properties = doc.Root()
	return t
}

// Score carries the same shape as an OfferTemplate; components add named
// entries under a namespace of their choosing. /final-score is the only
// path with fixed meaning, read by the selection layer.
type Score struct {
	Properties any `json:"properties"`
}

// NewScore returns an empty score document.
func NewScore() Score {
	return Score{Properties: map[string]any{}}
}

// Doc returns a document view over the score's properties.
func (s Score) Doc() *document.Document {
	return document.New(s.Properties)
}

// WithDoc returns a copy of the score with its properties replaced.
func (s Score) WithDoc(doc *document.Document) Score {
	s.Properties = doc.Root()
	return s
}

// FinalScore reads /final-score per the reserved-path convention: absent
// is 0.0, a non-numeric value is reported as NaN so the collection layer
// can reject it as a data error.
func (s Score) FinalScore() float64 {
	v, ok := s.Doc().Pointer("/final-score")
	if !ok {
		return 0.0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return nan()
	}
}

// WithFinalScore returns a copy of the score with /final-score set.
func (s Score) WithFinalScore(value float64) Score {
	doc := s.Doc()
	_ = doc.Set("/final-score", value)
	return s.WithDoc(doc)
}

// ProposalState is the lifecycle label controlling whether a Ready result
// counters or enters the selection layer.
type ProposalState string

const (
	ProposalInitial  ProposalState = "Initial"
	ProposalDraft    ProposalState = "Draft"
	ProposalAccepted ProposalState = "Accepted"
	ProposalRejected ProposalState = "Rejected"
)

// ProposalView is a party's current offer/demand document in a
// negotiation: either "their" (incoming from the peer) or "template"
// (our previous response, mutated by the chain fold).
type ProposalView struct {
	Content   OfferTemplate        `json:"content"`
	Id        core.ProposalId      `json:"id"`
	Issuer    core.NodeId          `json:"issuer"`
	State     ProposalState        `json:"state"`
	Timestamp time.Time            `json:"timestamp"`
}

// Pointer resolves a JSON-pointer path against the proposal's content.
func (p ProposalView) Pointer(pointer string) (any, bool) {
	return p.Content.Doc().Pointer(pointer)
}

// AgreementView is a signed, bilaterally consistent proposal pair.
type AgreementView struct {
	Id       core.AgreementId `json:"id"`
	Offer    ProposalView     `json:"offer"`
	Demand   ProposalView     `json:"demand"`
	ValidTo  time.Time        `json:"valid_to"`
}

func nan() float64 {
	var zero float64
	return zero / zero
}
