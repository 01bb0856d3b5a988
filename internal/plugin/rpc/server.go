package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/negotiation"
)

// Factory constructs a component instance by name from its decoded
// configuration, mirroring registry.Create's signature without this
// package depending on registry directly (the subprocess binary wires
// whichever factory it needs).
type Factory func(name string, config map[string]any, workingDir string) (component.Component, error)

// Server is the subprocess-side actor-style dispatcher: an id →
// component-handle map guarded by a reader-writer lock, addressed over
// the three-method wire protocol.
type Server struct {
	mu      sync.RWMutex
	factory Factory
	handles map[string]component.Component
}

// NewServer returns a dispatcher that builds new negotiator instances
// with factory.
func NewServer(factory Factory) *Server {
	return &Server{factory: factory, handles: map[string]component.Component{}}
}

func (s *Server) CreateNegotiator(_ context.Context, req *CreateRequest) (*CreateResponse, error) {
	var config map[string]any
	if req.ParamsYAML != "" {
		if err := yaml.Unmarshal([]byte(req.ParamsYAML), &config); err != nil {
			return nil, fmt.Errorf("decode negotiator params: %w", err)
		}
	}

	comp, err := s.factory(req.Name, config, req.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("create negotiator %q: %w", req.Name, err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.handles[id] = comp
	s.mu.Unlock()

	return &CreateResponse{Id: id}, nil
}

func (s *Server) lookup(id string) (component.Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comp, ok := s.handles[id]
	return comp, ok
}

func (s *Server) CallNegotiator(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	comp, ok := s.lookup(req.Id)
	if !ok {
		return nil, fmt.Errorf("unknown negotiator id %q", req.Id)
	}

	var msg NegotiationMessage
	if err := json.Unmarshal([]byte(req.MessageJSON), &msg); err != nil {
		return nil, fmt.Errorf("decode negotiation message: %w", err)
	}

	resp, err := dispatch(ctx, comp, msg)
	if err != nil {
		// Negotiator-local failures travel in-band: an Ok gRPC status
		// carrying the error message, so transport-level retries never
		// fire on an application error.
		return &CallResponse{Error: err.Error()}, nil
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode negotiation response: %w", err)
	}
	return &CallResponse{ResponseJSON: string(encoded)}, nil
}

func dispatch(ctx context.Context, comp component.Component, msg NegotiationMessage) (NegotiationResponse, error) {
	switch msg.Kind {
	case MessageFillTemplate:
		template, err := comp.FillTemplate(ctx, msg.Template)
		if err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseOfferTemplate, OfferTemplate: template}, nil

	case MessageNegotiateStep:
		result, err := comp.NegotiateStep(ctx, &msg.Their, msg.ProposalTemplate, msg.Score)
		if err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseNegotiationResult, Result: result}, nil

	case MessageAgreementSigned:
		if err := comp.OnAgreementApproved(ctx, msg.Agreement); err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseEmpty}, nil

	case MessageAgreementTerminated:
		if err := comp.OnAgreementTerminated(ctx, msg.AgreementId, msg.Result); err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseEmpty}, nil

	case MessageProposalRejected:
		if err := comp.OnProposalRejected(ctx, msg.ProposalId); err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseEmpty}, nil

	case MessageAgreementEvent:
		if err := comp.OnAgreementEvent(ctx, msg.AgreementId, msg.Event); err != nil {
			return NegotiationResponse{}, err
		}
		return NegotiationResponse{Kind: ResponseEmpty}, nil

	case MessageControlEvent:
		var params any
		if len(msg.Params) > 0 {
			if err := json.Unmarshal(msg.Params, &params); err != nil {
				return NegotiationResponse{}, fmt.Errorf("decode control params: %w", err)
			}
		}
		result, err := comp.ControlEvent(ctx, msg.Component, params)
		if err != nil {
			return NegotiationResponse{}, err
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return NegotiationResponse{}, fmt.Errorf("encode control result: %w", err)
		}
		return NegotiationResponse{Kind: ResponseGeneric, Generic: encoded}, nil

	default:
		return NegotiationResponse{}, fmt.Errorf("unknown negotiation message kind %q", msg.Kind)
	}
}

// Shutdownable is implemented by a negotiator component that owns
// resources needing an orderly release (background workers, open
// files) before its handle is dropped. A component that doesn't
// implement it is simply dropped outright.
type Shutdownable interface {
	Shutdown(ctx context.Context) error
}

// ShutdownNegotiator drops req.Id's handle so no further CallNegotiator
// can reach it, then — if the component is Shutdownable — runs its
// cleanup bounded by req.TimeoutSeconds. Per the shutdown contract, the
// handle is gone either way once the deadline passes, whether or not
// cleanup finished.
func (s *Server) ShutdownNegotiator(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error) {
	s.mu.Lock()
	comp, ok := s.handles[req.Id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("unknown negotiator id %q", req.Id)
	}
	delete(s.handles, req.Id)
	s.mu.Unlock()

	shutdownable, ok := comp.(Shutdownable)
	if !ok {
		return &ShutdownResponse{}, nil
	}

	deadline, cancel := context.WithTimeout(ctx, time.Duration(req.TimeoutSeconds)*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- shutdownable.Shutdown(deadline) }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("shutdown negotiator %q: %w", req.Id, err)
		}
	case <-deadline.Done():
		// Timed out; the handle is already dropped above, so the
		// component is gone from the dispatcher's view regardless.
	}
	return &ShutdownResponse{}, nil
}
