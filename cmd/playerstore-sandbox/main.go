// Command playerstore-sandbox serves the mock Open Cloud universe as a
// standalone process, with optional artificial latency and failure-rate
// injection for exercising the retry path of the real clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/rbxkit/playerstore/internal/devseed"
	"github.com/rbxkit/playerstore/pkg/opencloud/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	addr := flag.String("addr", ":8787", "listen address")
	seedPath := flag.String("seed", "", "path to JSON seed (users + entries)")
	latency := flag.Duration("latency", 0, "artificial latency injected per request")
	fail := flag.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flag.Parse()

	logger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("PLAYERSTORE_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "playerstore-sandbox")

	universe := mock.NewUniverse()
	if *seedPath != "" {
		seed, err := devseed.Load(*seedPath)
		if err != nil {
			logger.Error("sandbox.seed.load_failed", "path", *seedPath, "error", err)
			os.Exit(1)
		}
		if err := seed.Apply(context.Background(), universe); err != nil {
			logger.Error("sandbox.seed.apply_failed", "path", *seedPath, "error", err)
			os.Exit(1)
		}
		logger.Info("sandbox.seed.applied",
			"path", *seedPath, "users", len(seed.Users), "entries", len(seed.Entries))
	}

	failCfg, err := parseFailConfig(*fail)
	if err != nil {
		logger.Error("sandbox.fail_flag.invalid", "value", *fail, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           withChaos(*latency, failCfg, mock.Handler(universe)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("sandbox.listening", "addr", *addr, "latency", *latency, "fail", *fail)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("sandbox.serve_failed", "error", err)
		os.Exit(1)
	}
}

// withChaos delays every request by latency and fails a fraction of them
// with the configured status, before they reach the universe.
func withChaos(latency time.Duration, fail failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if latency > 0 {
			time.Sleep(latency)
		}
		if fail.rate > 0 && rand.Float64() < fail.rate {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.code)
			fmt.Fprintf(w, `{"code":"UNAVAILABLE","message":"injected failure (%d)"}`, fail.code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(s string) (failConfig, error) {
	cfg := failConfig{code: http.StatusInternalServerError}
	if strings.TrimSpace(s) == "" {
		return cfg, nil
	}
	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return cfg, fmt.Errorf("malformed component %q", part)
		}
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || rate < 0 || rate > 1 {
				return cfg, fmt.Errorf("rate must be a float in [0,1], got %q", value)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || code < 400 || code > 599 {
				return cfg, fmt.Errorf("code must be a 4xx/5xx status, got %q", value)
			}
			cfg.code = code
		default:
			return cfg, fmt.Errorf("unknown component %q", key)
		}
	}
	return cfg, nil
}
