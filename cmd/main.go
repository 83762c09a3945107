package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xhad/courseplan/internal/logger"
	cfgPkg "github.com/xhad/courseplan/pkg/config"
	"github.com/xhad/courseplan/server"
)

type options struct {
	configPath string
	storeKind  string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "courseplan",
		Short: "Turn coursework PDFs into implementation plans",
		Long: `courseplan reads a coursework specification PDF, stores it for
retrieval and produces an implementation guide of milestones and tasks.
Follow-up questions are answered from the stored document.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&opts.storeKind, "store", "auto", "Vector store: auto, pg or memory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newServeCmd(opts), newDecomposeCmd(opts))
	return root
}

// loadConfig reads .env, the config file and flag overrides, then sets up
// logging.
func loadConfig(opts *options) (*cfgPkg.Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %s\n", e.Error())
		}
		return nil, fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newServeCmd(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, opts.storeKind)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.NewWithConfig(server.Config{
				Port:          cfg.Server.Port,
				MaxUploadMB:   cfg.Server.MaxUploadMB,
				ImageCacheDir: cfg.Processor.ImageCacheDir,
				Mode:          cfg.Server.Mode,
			}, a.orch)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")
	return cmd
}

func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
