// Command oasgen serves an example pet store API together with its
// generated OpenAPI document, and prints or validates the document.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/app"
	"github.com/vitalvas/oasgen/auth"
	"github.com/vitalvas/oasgen/cli"
	"github.com/vitalvas/oasgen/config"
	"github.com/vitalvas/oasgen/logging"
	"github.com/vitalvas/oasgen/muxhandlers"
	"github.com/vitalvas/oasgen/openapi"
)

const shutdownTimeout = 10 * time.Second

type service struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	app      *app.App
}

func newService(configPath string) (*service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.OpenAPI.Info.Title == "" {
		cfg.OpenAPI.Info.Title = "Pet Store"
	}

	a, err := app.New(&cfg.OpenAPI,
		app.WithLogger(logger),
		app.WithVerifier(auth.Users(adminUsers(), "admin")),
		app.WithSynthesizerOptions(openapi.WithMetrics(openapi.NewMetrics(registry))),
	)
	if err != nil {
		return nil, err
	}
	if err := useMiddleware(a, cfg.HTTP); err != nil {
		return nil, err
	}
	a.Router().Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if err := registerPetStore(a); err != nil {
		return nil, err
	}

	return &service{cfg: cfg, logger: logger, registry: registry, app: a}, nil
}

// adminUsers reads the admin password from OASGEN_ADMIN_PASSWORD. Without
// it no user can authenticate.
func adminUsers() map[string]string {
	if pw := os.Getenv("OASGEN_ADMIN_PASSWORD"); pw != "" {
		return map[string]string{"admin": pw}
	}
	return map[string]string{}
}

// useMiddleware installs the CORS and compression middleware cfg enables.
func useMiddleware(a *app.App, cfg config.HTTPConfig) error {
	if cfg.CORS.Enabled() {
		mw, err := muxhandlers.CORSMiddleware(a.Router(), cfg.CORS)
		if err != nil {
			return err
		}
		a.Use(mw)
	}
	if cfg.Compress {
		mw, err := muxhandlers.CompressionMiddleware(cfg.Compression)
		if err != nil {
			return err
		}
		a.Use(mw)
	}
	return nil
}

func (s *service) handler() http.Handler {
	return s.app.Handler()
}

func (s *service) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr), zap.String("spec", s.cfg.OpenAPI.SpecPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "oasgen",
		Short:         "Example API with a synthesized OpenAPI document",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML configuration file")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	})

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API, the document and the docs page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newService(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = s.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.serve(ctx, addr)
		},
	}
	serve.Flags().StringVarP(&addr, "listen", "l", ":8080", "listen address")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the document against the OpenAPI specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newService(configPath)
			if err != nil {
				return err
			}
			doc, err := s.app.Synthesizer().Document(false)
			if err != nil {
				return err
			}
			if err := openapi.Validate(cmd.Context(), doc); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(cmd.ErrOrStderr(), "OpenAPI document is valid")
			return nil
		},
	}

	spec := cli.NewSpecCommand(func() (*openapi.Synthesizer, error) {
		s, err := newService(configPath)
		if err != nil {
			return nil, err
		}
		return s.app.Synthesizer(), nil
	})

	root.AddCommand(serve, validate, spec)
	return root
}

func main() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		cli.ReportError(root, err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
