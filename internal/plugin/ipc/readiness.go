// Package ipc provides a tiny loopback readiness handshake used between
// the engine and a gRPC-subprocess plugin: rather than sleeping a fixed
// duration after spawning the child process, the supervisor dials a
// websocket endpoint the child opens right before it starts serving
// gRPC, and blocks until that handshake completes or a deadline passes.
package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const readinessPath = "/ready"

// pingMessage/pongMessage are the literal handshake payloads exchanged
// once the connection upgrades.
const (
	pingMessage = "ready?"
	pongMessage = "ready!"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64,
	WriteBufferSize: 64,
}

// ServeReadiness starts a loopback HTTP server exposing the readiness
// websocket endpoint on addr and returns once a listener is bound,
// serving in the background until ctx is cancelled. Call this from the
// plugin subprocess immediately before it starts accepting gRPC
// connections.
func ServeReadiness(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc(readinessPath, handleReadiness)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("readiness server: %w", err)
	}

	server := &http.Server{Handler: mux}
	go server.Serve(listener)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return nil
}

func handleReadiness(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	if err != nil || string(msg) != pingMessage {
		return
	}
	conn.WriteMessage(websocket.TextMessage, []byte(pongMessage))
}

// WaitReady repeatedly dials the readiness endpoint at addr until the
// handshake succeeds or ctx is cancelled. It replaces a flat startup
// sleep with an actual liveness check.
func WaitReady(ctx context.Context, addr string) error {
	url := "ws://" + addr + readinessPath
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("plugin never became ready: %w", lastErr)
			}
			return ctx.Err()
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}

		conn.WriteMessage(websocket.TextMessage, []byte(pingMessage))
		_, msg, err := conn.ReadMessage()
		conn.Close()
		if err == nil && string(msg) == pongMessage {
			return nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
}
