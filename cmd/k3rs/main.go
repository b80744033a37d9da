package main

import (
	"fmt"
	"os"

	"github.com/k3rs/k3rs/pkg/config"
	"github.com/k3rs/k3rs/pkg/log"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "k3rs",
	Short: "K3rs - a lightweight Kubernetes-style container orchestrator",
	Long: `K3rs splits into a control-plane server and a data-plane agent,
delivered as a single binary.

The server accepts declarative workload specs and reconciles them into
scheduled Pods; the agent runs on every node and turns scheduled Pods
into running containers.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"k3rs version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Path for Store files / runtime state")
	rootCmd.PersistentFlags().String("token", "", "Shared secret required on agent join")
	rootCmd.PersistentFlags().Int("listen-port", 0, "API port")
	rootCmd.PersistentFlags().String("node-name", "", "Identity for this agent")
	rootCmd.PersistentFlags().String("object-store-url", "", "Backend for Store (local, s3://, r2://)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(getCmd)
}

// loadConfig merges defaults, the --config file (if given) and
// whichever persistent flags the caller actually set, in that order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		merged, err := config.LoadFile(path, cfg)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = merged
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("token") {
		cfg.Token, _ = flags.GetString("token")
	}
	if flags.Changed("listen-port") {
		cfg.ListenPort, _ = flags.GetInt("listen-port")
	}
	if flags.Changed("node-name") {
		cfg.NodeName, _ = flags.GetString("node-name")
	}
	if flags.Changed("object-store-url") {
		cfg.ObjectStoreURL, _ = flags.GetString("object-store-url")
	}

	return cfg, nil
}

func initLogging(cfg config.Config) {
	log.Init(log.FromAppConfig(cfg.LogLevel, cfg.LogJSON))
}
