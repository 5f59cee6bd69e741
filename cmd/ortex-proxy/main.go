// Command ortex-proxy exposes the ORTEX API through a local HTTP server.
// Requests under /api/ are forwarded through the resilient client, so every
// consumer behind the proxy shares one throttler, one retry policy, and one
// credit budget.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ortex-financial/ortex-go/pkg/apierr"
	"github.com/ortex-financial/ortex-go/pkg/client"
	"github.com/ortex-financial/ortex-go/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if addr := os.Getenv("ORTEX_PROXY_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Observability.LogLevel),
		Pretty: cfg.Observability.LogPretty,
		Output: os.Stderr,
	}).With().Str("component", "ortex-proxy").Logger()

	apiClient, err := buildClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create API client")
	}
	defer apiClient.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle(cfg.Observability.PrometheusPath, promhttp.Handler())
	mux.Handle("/api/", proxyHandler(apiClient, logger))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("metrics_path", cfg.Observability.PrometheusPath).
		Msg("starting proxy server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// buildClient overlays the YAML upstream settings on the client defaults and
// wires in Redis-backed credit tracking when an address is configured.
func buildClient(cfg *ProxyConfig, logger zerolog.Logger) (*client.Client, error) {
	clientCfg := client.DefaultConfig()
	clientCfg.APIKey = cfg.Upstream.APIKey
	clientCfg.Timeout = cfg.Upstream.Timeout()
	if cfg.Upstream.BaseURL != "" {
		clientCfg.BaseURL = cfg.Upstream.BaseURL
	}
	if cfg.Upstream.MaxRetries > 0 {
		clientCfg.MaxRetries = cfg.Upstream.MaxRetries
	}
	if cfg.Upstream.MaxConcurrent > 0 {
		clientCfg.MaxConcurrent = cfg.Upstream.MaxConcurrent
	}
	if cfg.Upstream.RequestsPerSecond > 0 {
		clientCfg.RequestsPerSecond = cfg.Upstream.RequestsPerSecond
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clientCfg.Redis = redisClient
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("credit tracking enabled")
	}

	return client.New(clientCfg)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// proxyHandler forwards /api/<path>?<query> through the client and writes
// the parsed envelope back as JSON. Classified errors map onto HTTP status
// codes so callers see the upstream failure mode.
func proxyHandler(apiClient *client.Client, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/api/")
		if path == "" {
			http.Error(w, "missing API path", http.StatusBadRequest)
			return
		}

		resp, err := apiClient.Get(r.Context(), path, r.URL.Query())
		if err != nil {
			writeError(w, logger, path, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn().Err(err).Str("endpoint", path).Msg("failed to write response")
		}
	})
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, path string, err error) {
	status := http.StatusBadGateway
	kind := "unknown"

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		kind = string(apiErr.Kind)
		switch apiErr.Kind {
		case apierr.KindAuthentication:
			status = http.StatusUnauthorized
		case apierr.KindValidation:
			status = http.StatusBadRequest
		case apierr.KindNotFound:
			status = http.StatusNotFound
		case apierr.KindRateLimited:
			status = http.StatusTooManyRequests
		case apierr.KindTimeout:
			status = http.StatusGatewayTimeout
		case apierr.KindServer, apierr.KindNetwork:
			status = http.StatusBadGateway
		}
	}

	logger.Warn().Err(err).Str("endpoint", path).Str("kind", kind).Msg("upstream request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "kind": kind})
}
