package cli

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/opcall-go/opcall/pkg/logging"
)

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose health and prometheus metrics endpoints",
		Long: `Serve runs a small HTTP endpoint exposing /healthz and /metrics so the
transport, cache, pagination, and polling metrics of long batch runs can
be scraped while the process works.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":9090", "Listen address")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if cfg.Serve.Addr != "" && !cmd.Flags().Changed("addr") {
		addr = cfg.Serve.Addr
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	logger := logging.NewLogger("serve")
	logger.Info().Str("addr", addr).Msg("Starting metrics endpoint")

	server := &http.Server{Addr: addr, Handler: r}
	return server.ListenAndServe()
}
