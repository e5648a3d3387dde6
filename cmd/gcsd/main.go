package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/gcsd/pkg/config"
	"github.com/cuemby/gcsd/pkg/eventbus"
	"github.com/cuemby/gcsd/pkg/gcs"
	"github.com/cuemby/gcsd/pkg/log"
	"github.com/cuemby/gcsd/pkg/store"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gcsd",
	Short: "gcsd is the global control store for a distributed actor/task cluster",
	Long: `gcsd tracks cluster-wide node, job, actor, placement-group, worker, and
object-location state and serves it over gRPC, independent of any single
task's execution.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("gcsd version %s\nCommit: %s\n", Version, Commit))
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the GCS server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyFlagOverrides(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log.Init(log.Config{})

		s, bus, err := openBackends(cfg)
		if err != nil {
			return err
		}

		server := gcs.New(cfg, s, bus).WithHealthServer(Version)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start gcs server: %w", err)
		}

		fmt.Printf("gcsd listening on %s\n", server.Addr())
		fmt.Println("Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		server.Stop()
		fmt.Println("Shutdown complete")
		return nil
	},
}

func init() {
	runCmd.Flags().String("config", "", "path to a YAML config file")
	runCmd.Flags().String("node-id", "", "override node_id")
	runCmd.Flags().Int("grpc-port", 0, "override grpc_server_port")
	runCmd.Flags().String("data-dir", "", "override store_data_dir")
	runCmd.Flags().Bool("resource-broadcast", false, "enable push-based resource reporting")
}

// applyFlagOverrides layers any explicitly-set CLI flags over the loaded
// config, the same precedence order the teacher's cluster init command
// uses (file defaults, then flags).
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if v, _ := cmd.Flags().GetString("node-id"); v != "" {
		cfg.NodeID = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.GRPCServerPort = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.StoreDataDir = v
	}
	if v, _ := cmd.Flags().GetBool("resource-broadcast"); v {
		cfg.GRPCBasedResourceBroadcast = true
	}
	return nil
}

// maxStoreRetries bounds the exponential backoff wrapped around every store
// call (§7); it never blocks a request indefinitely.
const maxStoreRetries = 5

// openBackends constructs the store and event bus config.StoreKind and
// config.GRPCPubsubEnabled select, per §9: exactly one of each is active.
func openBackends(cfg *config.Config) (store.Store, eventbus.Bus, error) {
	switch cfg.StoreKind {
	case config.StoreBolt:
		s, err := store.NewBoltStore(cfg.StoreDataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		bus := eventbus.NewBroker()
		bus.Start()
		return store.NewRetrying(s, maxStoreRetries), bus, nil

	case config.StoreEtcd:
		endpoint := fmt.Sprintf("%s:%d", cfg.StoreAddress, cfg.StorePort)
		s, err := store.NewEtcdStore([]string{endpoint})
		if err != nil {
			return nil, nil, fmt.Errorf("open etcd store: %w", err)
		}
		if !cfg.GRPCPubsubEnabled {
			bus := eventbus.NewEtcdBus(s.Client())
			bus.Start()
			return store.NewRetrying(s, maxStoreRetries), bus, nil
		}
		bus := eventbus.NewBroker()
		bus.Start()
		return store.NewRetrying(s, maxStoreRetries), bus, nil

	default:
		return nil, nil, fmt.Errorf("unknown store_kind %q", cfg.StoreKind)
	}
}
