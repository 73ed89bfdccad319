package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sigweihq/tipjar/pkg/apiclient"
	"github.com/sigweihq/tipjar/pkg/config"
	"github.com/sigweihq/tipjar/pkg/metrics"
	"github.com/sigweihq/tipjar/pkg/utils"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	// Global flags
	configPath  string
	networkFlag string
	apiURLFlag  string

	// Global state initialized in PersistentPreRunE
	cfg           *config.Config
	logger        *slog.Logger
	metricsRec    metrics.Recorder
	metricsServer *http.Server
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rootCmd = &cobra.Command{
	Use:   "tipjar",
	Short: "Send crypto donations to a streamer",
	Long: `tipjar sends ETH or SOL to a streamer's wallet from a key you hold.

The destination chain is taken from the streamer's wallet. The USD amount you
enter is converted at the live rate before you review and confirm the transfer.

Example:
  tipjar wallet 6f1c2e
  tipjar prices
  tipjar donate 6f1c2e --amount 5 --message "gg"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $TIPJAR_HOME/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "", "chain environment: mainnet or testnet")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "tipjar backend URL")

	rootCmd.AddCommand(donateCmd, pricesCmd, walletCmd, explorerCmd)
}

// Execute runs the root command. Ctrl-C cancels pending wallet and network calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", describeError(err))
		return err
	}
	return nil
}

// initGlobals loads configuration and builds the logger and metrics recorder
func initGlobals(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		home := os.Getenv(config.EnvHome)
		if home == "" {
			home = config.DefaultHome()
		}
		path = config.Path(home)
	}

	loaded, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	config.ApplyEnvironment(loaded)
	if networkFlag != "" {
		loaded.Network = networkFlag
	}
	if apiURLFlag != "" {
		loaded.API.URL = config.SanitizeURL(apiURLFlag)
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	logger = cfg.NewLogger(cmd.ErrOrStderr())
	metricsRec = metrics.NoopRecorder{}

	if cfg.Metrics.Listen != "" {
		return startMetricsServer(cfg.Metrics.Listen)
	}
	return nil
}

func startMetricsServer(addr string) error {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	metricsRec = rec

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Debug("serving metrics", "addr", addr)
	return nil
}

func cleanup() {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(ctx)
		metricsServer = nil
	}
}

// newAPIClient builds the backend client from the loaded configuration
func newAPIClient() (*apiclient.Client, error) {
	httpClient := utils.CreateHTTPClientWithTimeouts()
	httpClient.Timeout = cfg.API.Timeout

	return apiclient.NewClient(&apiclient.Config{
		URL:        cfg.API.URL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
}
