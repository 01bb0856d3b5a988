package component

// AcceptAll is a negotiator that accepts every incoming proposal: every
// method is the transparent default from Base.
type AcceptAll struct {
	Base
}

// NewAcceptAll returns an AcceptAll component. It takes no configuration.
func NewAcceptAll(_ map[string]any) (*AcceptAll, error) {
	return &AcceptAll{}, nil
}
