package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/stressnet-go/cmd/config"
	"github.com/tphakala/stressnet-go/cmd/file"
	"github.com/tphakala/stressnet-go/cmd/serve"
	"github.com/tphakala/stressnet-go/internal/buildinfo"
	"github.com/tphakala/stressnet-go/internal/conf"
	"github.com/tphakala/stressnet-go/internal/errors"
	"github.com/tphakala/stressnet-go/internal/logger"
)

// telemetryFlushTimeout bounds how long exit waits for buffered Sentry events.
const telemetryFlushTimeout = 2 * time.Second

// RootCommand creates the root command and the cleanup that flushes telemetry
// and closes the log file. Cobra skips post-run hooks when a command fails,
// so the caller runs cleanup after Execute returns, on success and on error.
func RootCommand(build *buildinfo.Context) (rootCmd *cobra.Command, cleanup func()) {
	// Subcommands hold this pointer, it is filled in before they run
	settings := &conf.Settings{}
	var configPath string
	var centralLogger *logger.CentralLogger

	rootCmd = &cobra.Command{
		Use:           "stressnet",
		Short:         "StressNet-Go stress detection from audio",
		Version:       build.Version(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetVersionTemplate(build.String() + "\n")

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configPath); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		file.Command(settings),
		config.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		centralLogger, err = initialize(settings, configPath, build)
		return err
	}

	cleanup = func() {
		errors.FlushTelemetry(telemetryFlushTimeout)
		if err := centralLogger.Close(); err != nil {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "closing log file: %v\n", err)
		}
	}

	return rootCmd, cleanup
}

// initialize loads the configuration and sets up logging and telemetry
// before any subcommand runs.
func initialize(settings *conf.Settings, configPath string, build *buildinfo.Context) (*logger.CentralLogger, error) {
	if configPath != "" {
		conf.SetConfigFile(configPath)
	}

	loaded, err := conf.Load()
	if err != nil {
		return nil, err
	}
	*settings = *loaded

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	centralLogger, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(centralLogger)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, build.Release()); err != nil {
			// telemetry is optional, run without it
			GetLogger().Warn("sentry initialization failed", logger.Error(err))
		}
	}

	GetLogger().Debug("configuration loaded",
		logger.String("version", build.Version()),
		logger.String("model", settings.Model.Path))

	return centralLogger, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configPath *string) error {
	rootCmd.PersistentFlags().StringVarP(configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Path to the .tflite or .onnx model file")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("model.path", rootCmd.PersistentFlags().Lookup("model")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
