// Command splitsio-proxy exposes the splits.io API through a local
// caching proxy. Responses are cached in Redis when REDIS_URL is set,
// and Prometheus metrics are served on /metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/splitsio/go-splitsio/pkg/client"
	"github.com/splitsio/go-splitsio/pkg/logging"
)

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(envOr("LOG_LEVEL", "info")),
		Output: os.Stderr,
	})
	log := logging.NewLogger("splitsio-proxy")

	cfg := client.Config{
		BaseURL:   envOr("SPLITSIO_BASE_URL", client.DefaultBaseURL),
		UserAgent: envOr("USER_AGENT", client.DefaultUserAgent),
	}
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			log.Fatal().Err(err).Str("redis_url", addr).Msg("invalid REDIS_URL")
		}
		cfg.Redis = redis.NewClient(opts)
		log.Info().Str("addr", opts.Addr).Msg("response cache enabled")
	}

	c, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("client setup failed")
	}

	router := newRouter(c)

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func newRouter(c *client.Client) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/api/").Handler(http.StripPrefix("/api/", proxyHandler(c))).Methods(http.MethodGet)
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// proxyHandler forwards the remaining path and query string to the
// upstream API and relays the response body.
func proxyHandler(c *client.Client) http.Handler {
	log := logging.NewLogger("proxy")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if r.URL.RawQuery != "" {
			endpoint += "?" + r.URL.RawQuery
		}

		header, body, err := c.Get(r.Context(), endpoint)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
				log.Warn().Err(err).Str("endpoint", endpoint).Msg("upstream error")
				http.Error(w, apiErr.Message, apiErr.StatusCode)
				return
			}
			log.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}

		if ct := header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		for _, h := range []string{"Per-Page", "Total"} {
			if v := header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
