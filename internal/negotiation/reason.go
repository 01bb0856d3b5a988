package negotiation

import "encoding/json"

// finalFlagKey is the well-known extra key signalling whether a rejected
// peer should back off permanently (true) or may retry (false).
const finalFlagKey = "golem.proposal.rejection.is-final"

// Reason is a free-form rejection message plus an extensible JSON object,
// carried on every RejectProposal/RejectAgreement action.
type Reason struct {
	Message string
	Extra   map[string]any
}

// NewReason builds a Reason with no extra fields.
func NewReason(message string) Reason {
	return Reason{Message: message, Extra: map[string]any{}}
}

// Entry returns a copy of the reason with an extra field set.
func (r Reason) Entry(key string, value any) Reason {
	extra := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		extra[k] = v
	}
	extra[key] = value
	return Reason{Message: r.Message, Extra: extra}
}

// WithFinal sets the is-final convention flag.
func (r Reason) WithFinal(final bool) Reason {
	return r.Entry(finalFlagKey, final)
}

// IsFinal reports the is-final convention flag, defaulting to false.
func (r Reason) IsFinal() bool {
	v, ok := r.Extra[finalFlagKey]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MarshalJSON flattens Message and Extra into a single object, matching
// the wire shape of the original Reason type.
func (r Reason) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["message"] = r.Message
	return json.Marshal(out)
}

// UnmarshalJSON reconstructs Message/Extra from a flattened object.
func (r *Reason) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	message, _ := raw["message"].(string)
	delete(raw, "message")
	r.Message = message
	r.Extra = raw
	return nil
}
