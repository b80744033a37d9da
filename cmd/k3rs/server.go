package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/k3rs/k3rs/pkg/controller"
	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/leader"
	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/metrics"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the k3rs control-plane server",
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	initLogging(cfg)

	if cfg.DataDir == "" {
		cfg.DataDir = "./k3rs-data"
	}

	eventLog := events.NewLog(10000)
	store, err := storage.NewBoltStore(cfg.DataDir, eventLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := seedClusterToken(store, cfg.Token); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed cluster token: %v\n", err)
		os.Exit(1)
	}

	holderID := cfg.NodeName
	if holderID == "" {
		holderID = uuid.New().String()
	}
	election := leader.NewElection(store, holderID, cfg.LeaseTTL, cfg.RenewInterval)

	runner := controller.NewRunner(
		controller.NewNodeController(store),
		controller.NewDeploymentController(store),
		controller.NewReplicaSetController(store),
		controller.NewDaemonSetController(store),
		controller.NewJobController(store),
		controller.NewCronJobController(store),
		controller.NewHPAController(store, controller.NewStoreMetricsSource(store)),
		controller.NewEvictionController(store, cfg.EvictionGrace),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	election.OnAcquire(func() {
		log.Info("server: acquired controller leadership")
		runner.Start(ctx)
	})
	election.OnLose(func() {
		log.Info("server: lost controller leadership")
		runner.Stop()
	})

	go election.Run(ctx)

	metrics.SetCriticalComponents("store", "leader-election")
	collector := metrics.NewCollector(store, election)
	collector.Start()
	defer collector.Stop()

	listenPort := cfg.ListenPort
	if listenPort == 0 {
		listenPort = 6443
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", listenPort), Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	fmt.Printf("k3rs server listening on :%d (data dir: %s)\n", listenPort, cfg.DataDir)
	fmt.Println("Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down...")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "\nHTTP server error: %v\n", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	cancel()
	runner.Stop()

	fmt.Println("Shutdown complete")
	return nil
}
