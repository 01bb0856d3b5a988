package rpc

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/logging"
	"github.com/negotiator/engine/internal/plugin/ipc"
)

// Supervisor spawns at most one subprocess per unique plugin binary
// path, memoizing a connected client and reusing it for every
// negotiator instance created from that binary.
type Supervisor struct {
	mu       sync.RWMutex
	services map[string]*service
	closed   bool
}

type service struct {
	client  *Client
	conn    *grpc.ClientConn
	process *exec.Cmd
	address string
}

// NewSupervisor returns an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{services: map[string]*service{}}
}

// pickUnusedPort asks the OS for a free TCP port by binding to :0 and
// immediately releasing it.
func pickUnusedPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// ServiceFor returns the memoized client for path, spawning the
// subprocess on first use.
func (s *Supervisor) ServiceFor(ctx context.Context, path string) (*Client, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("can't resolve binary path: %w", err)
	}

	s.mu.RLock()
	existing, ok := s.services[absPath]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("plugin %s: %w", absPath, core.ErrPluginClosed)
	}
	if ok {
		return existing.client, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("plugin %s: %w", absPath, core.ErrPluginClosed)
	}
	if existing, ok := s.services[absPath]; ok {
		return existing.client, nil
	}

	svc, err := s.spawn(ctx, absPath)
	if err != nil {
		return nil, err
	}
	s.services[absPath] = svc
	return svc.client, nil
}

func (s *Supervisor) spawn(ctx context.Context, path string) (*service, error) {
	port, err := pickUnusedPort()
	if err != nil {
		return nil, fmt.Errorf("no ports free: %w", err)
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	logging.Debug("spawning plugin service: %s on %s", path, address)

	cmd := exec.CommandContext(ctx, path, "--listen", address)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("can't spawn process: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := ipc.WaitReady(readyCtx, address); err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("plugin %s never became ready: %w", path, err)
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("can't connect to service: %w", err)
	}

	return &service{
		client:  NewClient(conn),
		conn:    conn,
		process: cmd,
		address: address,
	}, nil
}

// Close tears down every spawned subprocess and its connection, and
// marks the supervisor closed: later ServiceFor calls fail with
// core.ErrPluginClosed instead of spawning a new subprocess.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for path, svc := range s.services {
		svc.conn.Close()
		if svc.process.Process != nil {
			svc.process.Process.Kill()
		}
		delete(s.services, path)
	}
}
