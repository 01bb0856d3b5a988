// Package factory assembles a chain, its two collections and an engine
// from decoded configuration, matching each negotiator entry's
// load-mode to the transport that can construct it.
package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/negotiator/engine/internal/chain"
	"github.com/negotiator/engine/internal/collection"
	"github.com/negotiator/engine/internal/component"
	"github.com/negotiator/engine/internal/core"
	"github.com/negotiator/engine/internal/engine"
	"github.com/negotiator/engine/internal/logging"
	"github.com/negotiator/engine/internal/negconfig"
	"github.com/negotiator/engine/internal/negotiation"
	"github.com/negotiator/engine/internal/plugin/dynlib"
	"github.com/negotiator/engine/internal/plugin/registry"
	"github.com/negotiator/engine/internal/plugin/rpc"
)

// remoteShutdown pairs a loaded rpc.Component's Shutdown with the
// timeout its negotiator entry was configured with.
type remoteShutdown struct {
	name     string
	shutdown func(context.Context) error
	timeout  time.Duration
}

// Handle bundles the assembled engine with the working directory layout
// the factory created for it, plus whatever needs tearing down on
// Close: the gRPC subprocess supervisor and every remote component's
// shutdown RPC.
type Handle struct {
	Engine     *engine.Engine
	WorkingDir string

	supervisor *rpc.Supervisor
	remotes    []remoteShutdown
}

// Close asks every remote (grpc, remote-grpc) negotiator component to
// shut down, each bounded by its own configured timeout, then tears
// down the subprocess supervisor. It never forcibly kills a
// remote-grpc peer the engine doesn't own the process for; subprocess
// children spawned for grpc entries are killed by Supervisor.Close if
// they outlive their shutdown RPC.
func (h *Handle) Close(ctx context.Context) {
	for _, r := range h.remotes {
		deadline, cancel := context.WithTimeout(ctx, r.timeout)
		if err := r.shutdown(deadline); err != nil {
			logging.Component(r.name).Warn("shutdown: %v", err)
		}
		cancel()
	}
	if h.supervisor != nil {
		h.supervisor.Close()
	}
}

// Build assembles a chain from cfg.Negotiators, creates each component's
// working subdirectory, wires the two collections per
// cfg.Composite, and returns a ready-to-run Engine.
func Build(ctx context.Context, cfg negconfig.NegotiatorsConfig, workingDir, pluginsDir string) (*Handle, error) {
	c := chain.New()
	supervisor := rpc.NewSupervisor()
	var remotes []remoteShutdown

	for _, entry := range cfg.Negotiators {
		componentDir := filepath.Join(workingDir, entry.Name)
		if err := os.MkdirAll(componentDir, 0o755); err != nil {
			return nil, fmt.Errorf("create working dir for %q: %w", entry.Name, err)
		}

		comp, err := load(ctx, entry, componentDir, pluginsDir, supervisor)
		if err != nil {
			return nil, fmt.Errorf("load negotiator %q: %w", entry.Name, err)
		}
		if remote, ok := comp.(*rpc.Component); ok {
			remotes = append(remotes, remoteShutdown{name: entry.Name, shutdown: remote.Shutdown, timeout: entry.ShutdownTimeout})
		}
		c.Add(entry.Name, component.NewGuarded(comp))
	}

	proposals := collection.New(collection.Proposal,
		cfg.Composite.Proposals.CollectPeriod, cfg.Composite.Proposals.CollectAmount, goalFrom(cfg.Composite.Proposals.Goal))
	agreements := collection.New(collection.Agreement,
		cfg.Composite.Agreements.CollectPeriod, cfg.Composite.Agreements.CollectAmount, goalFrom(cfg.Composite.Agreements.Goal))

	return &Handle{
		Engine:     engine.New(c, proposals, agreements),
		WorkingDir: workingDir,
		supervisor: supervisor,
		remotes:    remotes,
	}, nil
}

func load(ctx context.Context, entry negconfig.NegotiatorConfig, workingDir, pluginsDir string, supervisor *rpc.Supervisor) (component.Component, error) {
	switch entry.LoadMode.Kind {
	case negconfig.LoadBuiltIn:
		return registry.Create("builtin", entry.Name, entry.Params)

	case negconfig.LoadStaticLib:
		return registry.Create(entry.LoadMode.Library, entry.Name, entry.Params)

	case negconfig.LoadSharedLibrary:
		path := resolvePath(entry.LoadMode.Path, pluginsDir)
		entryPoint, err := dynlib.Load(path)
		if err != nil {
			return nil, err
		}
		yamlParams, err := encodeParamsYAML(entry.Params)
		if err != nil {
			return nil, err
		}
		handle, err := entryPoint(entry.Name, yamlParams, workingDir)
		if err != nil {
			return nil, fmt.Errorf("shared library create_negotiator: %w", err)
		}
		return dynlib.Wrap(handle), nil

	case negconfig.LoadGRPC:
		path := resolvePath(entry.LoadMode.Path, pluginsDir)
		client, err := supervisor.ServiceFor(ctx, path)
		if err != nil {
			return nil, err
		}
		return createRemote(ctx, client, entry, workingDir)

	case negconfig.LoadRemoteGRPC:
		client, err := dialRemote(entry.LoadMode.Address)
		if err != nil {
			return nil, err
		}
		return createRemote(ctx, client, entry, workingDir)

	default:
		return nil, fmt.Errorf("negotiator %q: load mode %q: %w", entry.Name, entry.LoadMode.Kind, core.ErrInvalidLoadMode)
	}
}

func createRemote(ctx context.Context, client *rpc.Client, entry negconfig.NegotiatorConfig, workingDir string) (component.Component, error) {
	yamlParams, err := encodeParamsYAML(entry.Params)
	if err != nil {
		return nil, err
	}
	created, err := client.CreateNegotiator(ctx, &rpc.CreateRequest{
		Name:       entry.Name,
		ParamsYAML: yamlParams,
		WorkingDir: workingDir,
	})
	if err != nil {
		return nil, fmt.Errorf("create remote negotiator: %w", err)
	}
	return rpc.NewComponent(client, created.Id), nil
}

func resolvePath(path, pluginsDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(pluginsDir, path)
}

func goalFrom(cfg negconfig.GoalConfig) negotiation.Goal {
	if cfg.Limit != nil {
		return negotiation.Limit(*cfg.Limit)
	}
	if cfg.Batch != nil {
		return negotiation.Batch(*cfg.Batch)
	}
	return negotiation.Limit(0)
}
