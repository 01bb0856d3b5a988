package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/negotiator/engine/internal/chain"
	"github.com/negotiator/engine/internal/collection"
	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/engine"
	"github.com/negotiator/engine/internal/negotiation"
)

type echoComponent struct {
	component.Base
}

func (echoComponent) ControlEvent(_ context.Context, name string, params any) (any, error) {
	return map[string]any{"component": name, "params": params}, nil
}

func newTestServer() (*Server, func()) {
	c := chain.New()
	c.Add("echo", &echoComponent{})

	proposals := collection.New(collection.Proposal, time.Hour, 0, negotiation.Batch(10))
	agreements := collection.New(collection.Agreement, time.Hour, 0, negotiation.Limit(1))

	e := engine.New(c, proposals, agreements)
	s := New(Config{Addr: "127.0.0.1:0", Engine: e})
	return s, func() {
		proposals.Close()
		agreements.Close()
	}
}

func TestHealthzReportsOK(t *testing.T) {
	s, cleanup := newTestServer()
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q, want status ok", rec.Body.String())
	}
}

func TestControlForwardsToComponent(t *testing.T) {
	s, cleanup := newTestServer()
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/control/echo", strings.NewReader(`{"verbose":true}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"echo"`) {
		t.Errorf("body = %q, want component name echoed back", rec.Body.String())
	}
}

func TestControlUnknownComponentReturnsNotFound(t *testing.T) {
	s, cleanup := newTestServer()
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/control/missing", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
