package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/stressnet-go/internal/classifier"
	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/httpcontroller"
	"github.com/tphakala/stressnet-go/internal/logger"
	"github.com/tphakala/stressnet-go/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 10 * time.Second

// Command creates the command that starts the web UI and JSON API.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Long:  "Load the model and serve the upload page, the prediction API and the metrics endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().StringP("port", "p", "", "Port the web server listens on")
	cmd.Flags().Bool("metrics", true, "Expose Prometheus metrics at /metrics")

	// Bind flags to the viper settings
	if err := viper.BindPFlag("webserver.port", cmd.Flags().Lookup("port")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("metrics.enabled", cmd.Flags().Lookup("metrics")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

// Run loads the classifier and serves HTTP until ctx is canceled, then shuts
// the server down gracefully and releases the model.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")

	if !settings.WebServer.Enabled {
		return fmt.Errorf("web server is disabled in configuration")
	}

	c, err := classifier.New(settings)
	if err != nil {
		return fmt.Errorf("failed to load classifier: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("error closing classifier", logger.Error(err))
		}
	}()

	var metrics *observability.Metrics
	if settings.Metrics.Enabled {
		metrics, err = observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		c.SetMetrics(metrics.Classifier)
	}

	server := httpcontroller.New(settings, c, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("StressNet-Go ready",
		logger.String("model", c.ModelPath()),
		logger.String("backend", c.Backend()),
		logger.String("port", settings.WebServer.Port))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return <-errCh
}
