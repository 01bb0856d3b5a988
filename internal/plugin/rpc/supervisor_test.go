package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/negotiator/engine/internal/core"
)

func TestSupervisorServiceForAfterCloseFails(t *testing.T) {
	s := NewSupervisor()
	s.Close()

	_, err := s.ServiceFor(context.Background(), "./does-not-matter")
	if !errors.Is(err, core.ErrPluginClosed) {
		t.Fatalf("err = %v, want core.ErrPluginClosed", err)
	}
}

func TestSupervisorCloseIsIdempotent(t *testing.T) {
	s := NewSupervisor()
	s.Close()
	s.Close()
}
