// Negotiator Engine - a standalone negotiation daemon for a single
// market peer, loading its component chain from a YAML config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/negotiator/engine/internal/control"
	"github.com/negotiator/engine/internal/engine"
	"github.com/negotiator/engine/internal/factory"
	"github.com/negotiator/engine/internal/logging"
	"github.com/negotiator/engine/internal/negconfig"
)

var (
	dataDir    string
	pluginsDir string
	configPath string
	controlAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "negotiator-engine",
		Short: "Negotiator Engine - composable negotiation strategies for a market peer",
		RunE:  run,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".negotiator-engine")

	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir, "working directory for negotiator state")
	rootCmd.Flags().StringVar(&pluginsDir, "plugins-dir", filepath.Join(defaultDataDir, "plugins"), "directory resolving relative plugin paths")
	rootCmd.Flags().StringVar(&configPath, "config", "negotiator.yaml", "path to the negotiator configuration file")
	rootCmd.Flags().StringVar(&controlAddr, "control-addr", "127.0.0.1:9292", "loopback address for the operator control surface")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logging.Info("starting negotiator engine, config=%s data-dir=%s", configPath, dataDir)

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config %s: %w", configPath, err)
	}

	cfg, err := negconfig.Load(raw, yaml.Unmarshal)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle, err := factory.Build(ctx, cfg, dataDir, pluginsDir)
	if err != nil {
		return fmt.Errorf("assemble engine: %w", err)
	}
	logging.Info("loaded %d negotiator components", len(cfg.Negotiators))

	go runFeedbackLoop(ctx, handle.Engine)

	controlServer := control.New(control.Config{Addr: controlAddr, Engine: handle.Engine})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down")
		handle.Close(context.Background())
		cancel()
	}()

	logging.Info("control surface listening on %s", controlAddr)
	return controlServer.Start(ctx)
}

func runFeedbackLoop(ctx context.Context, e *engine.Engine) {
	e.Run(ctx)
}
