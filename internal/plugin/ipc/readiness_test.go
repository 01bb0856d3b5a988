package ipc

import (
	"context"
	"testing"
	"time"
)

func TestWaitReadySucceedsAfterServerStarts(t *testing.T) {
	addr := "127.0.0.1:18181"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ServeReadiness(ctx, addr); err != nil {
		t.Fatalf("ServeReadiness: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()

	if err := WaitReady(waitCtx, addr); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

func TestWaitReadyTimesOutWithNoServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	if err := WaitReady(ctx, "127.0.0.1:1"); err == nil {
		t.Fatal("expected an error when nothing is listening")
	}
}
