package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/restlens/go-restlens/config"
	"github.com/restlens/go-restlens/lens"
	"github.com/restlens/go-restlens/lsp"
	"github.com/spf13/cobra"
)

var metricsAddr string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the lens language server on stdio",
	Long:    "Runs a language server on stdin and stdout that shows lenses for matches of the configured providers. The provider file is reloaded when it changes. Editors may add providers through the restLens settings.",
	Example: "restlens serve --config restlens.toml",
	Args:    cobra.NoArgs,
	RunE:    serve,
}

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (default $RESTLENS_METRICS_ADDR)")
}

func serve(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		env.MetricsAddr = metricsAddr
	}

	resolver, err := newResolver(env)
	if err != nil {
		return err
	}

	store := config.NewStore(nil)
	lenses, err := lens.New(store, resolver,
		lens.WithTTL(env.TTL),
		lens.WithErrorTTL(env.ErrorTTL),
		lens.WithRefreshDelay(env.RefreshDelay),
	)
	if err != nil {
		return err
	}
	defer lenses.Close()

	if env.Config != "" {
		w, err := config.Watch(env.Config, store, lenses.InvalidateMatches)
		if err != nil {
			return err
		}
		defer w.Close()
	}

	if env.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: env.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("Metrics server stopped", "addr", env.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		log.Infow("Serving metrics", "addr", env.MetricsAddr)
	}

	log.Infow("Starting language server", "version", version, "config", env.Config)
	return lsp.NewServer(lenses, store, version).RunStdio()
}
