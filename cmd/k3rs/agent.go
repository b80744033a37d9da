package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/k3rs/k3rs/pkg/agent"
	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/runtime"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the k3rs node agent",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().String("containerd-socket", "", "containerd socket path (default: /run/containerd/containerd.sock)")
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	initLogging(cfg)

	if cfg.DataDir == "" {
		cfg.DataDir = "./k3rs-data"
	}
	if cfg.NodeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to determine node name: %w", err)
		}
		cfg.NodeName = hostname
	}

	store, err := storage.NewBoltStore(cfg.DataDir, events.NewLog(10000))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := checkJoinToken(store, cfg.Token); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	socketPath, _ := cmd.Flags().GetString("containerd-socket")
	backend, err := runtime.NewContainerdBackend(socketPath, filepath.Join(cfg.DataDir, "logs"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to containerd: %v\n", err)
		os.Exit(2)
	}
	defer backend.Close()

	sync := agent.NewPodSync(store, backend, cfg.NodeName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := agent.Recover(ctx, sync); err != nil {
		fmt.Fprintf(os.Stderr, "recovery failed: %v\n", err)
		os.Exit(2)
	}

	sync.Start(ctx)
	defer sync.Stop()

	fmt.Printf("k3rs agent running as node %q (data dir: %s)\n", cfg.NodeName, cfg.DataDir)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	return nil
}
