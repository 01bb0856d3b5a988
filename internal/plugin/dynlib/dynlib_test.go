package dynlib

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/negotiator/engine/internal/negotiation"
)

type fakeHandle struct{}

func (fakeHandle) NegotiateStep(theirJSON, templateJSON, scoreJSON string) (string, error) {
	var template negotiation.ProposalView
	if err := json.Unmarshal([]byte(templateJSON), &template); err != nil {
		return "", err
	}
	var score negotiation.Score
	if err := json.Unmarshal([]byte(scoreJSON), &score); err != nil {
		return "", err
	}
	result := negotiation.Ready(template, score)
	data, err := json.Marshal(result)
	return string(data), err
}

func (fakeHandle) FillTemplate(propertiesJSON, constraints string) (string, error) {
	template := negotiation.OfferTemplate{Constraints: constraints}
	var properties any
	if err := json.Unmarshal([]byte(propertiesJSON), &properties); err == nil {
		template.Properties = properties
	}
	data, err := json.Marshal(template)
	return string(data), err
}

func (fakeHandle) OnAgreementTerminated(string, string) error { return nil }
func (fakeHandle) OnAgreementApproved(string) error            { return nil }
func (fakeHandle) OnProposalRejected(string) error              { return nil }
func (fakeHandle) OnAgreementEvent(string, string) error        { return nil }
func (fakeHandle) ControlEvent(string, string) (string, error)  { return `{"ok":true}`, nil }

func TestComponentNegotiateStepRoundTrips(t *testing.T) {
	c := Wrap(fakeHandle{})
	template := negotiation.ProposalView{Content: negotiation.NewOfferTemplate()}
	result, err := c.NegotiateStep(context.Background(), &template, template, negotiation.NewScore())
	if err != nil {
		t.Fatalf("NegotiateStep: %v", err)
	}
	if result.Kind != negotiation.ResultReady {
		t.Errorf("kind = %v, want Ready", result.Kind)
	}
}

func TestComponentControlEventDecodesGeneric(t *testing.T) {
	c := Wrap(fakeHandle{})
	result, err := c.ControlEvent(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("ControlEvent: %v", err)
	}
	asMap, ok := result.(map[string]any)
	if !ok || asMap["ok"] != true {
		t.Errorf("result = %v, want {ok:true}", result)
	}
}
