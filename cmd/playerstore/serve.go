package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pkt.systems/pslog"

	"github.com/rbxkit/playerstore/internal/config"
	"github.com/rbxkit/playerstore/internal/devseed"
	"github.com/rbxkit/playerstore/internal/httpapi"
	"github.com/rbxkit/playerstore/internal/playerdata"
	"github.com/rbxkit/playerstore/internal/version"
	"github.com/rbxkit/playerstore/pkg/opencloud"
	"github.com/rbxkit/playerstore/pkg/opencloud/mock"
)

const shutdownTimeout = 10 * time.Second

func runServer(ctx context.Context, cfg *config.Config, logger pslog.Logger) error {
	mode, err := cfg.ResolveMode()
	if err != nil {
		return err
	}

	openCloudURL := cfg.OpenCloudBaseURL
	usersURL := cfg.UsersBaseURL
	apiKey := cfg.APIKey
	locator := cfg.Locator()

	// Mock mode serves an in-process universe on a loopback listener and
	// points the regular clients at it, so the whole stack (retry client,
	// conditional writes) is exercised either way.
	var mockSrv *http.Server
	if mode == config.ModeMock {
		universe := mock.NewUniverse()
		if cfg.SeedFile != "" {
			seed, err := devseed.Load(cfg.SeedFile)
			if err != nil {
				return err
			}
			if err := seed.Apply(ctx, universe); err != nil {
				return err
			}
		}
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen for mock universe: %w", err)
		}
		mockSrv = &http.Server{Handler: mock.Handler(universe), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := mockSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("mock.universe.serve_failed", "error", err)
			}
		}()
		base := "http://" + lis.Addr().String()
		openCloudURL, usersURL, apiKey = base, base, ""
		if locator.UniverseID <= 0 {
			// The mock handler accepts any universe id; pick one so the
			// locator validates without demanding real credentials.
			locator.UniverseID = 1
		}
		logger.Info("mock.universe.listening", "addr", lis.Addr().String(), "seed", cfg.SeedFile)
	}

	store, err := opencloud.NewDataStore(openCloudURL, apiKey, locator)
	if err != nil {
		return err
	}
	resolver, err := opencloud.NewUsers(usersURL)
	if err != nil {
		return err
	}
	svc, err := playerdata.New(resolver, store,
		playerdata.WithMutableRoot(cfg.MutableRoot),
		playerdata.WithLogger(logger.With("subsystem", "playerdata")),
	)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler, err := httpapi.New(httpapi.Config{
		Service:    svc,
		AdminToken: cfg.AdminToken,
		Logger:     logger.With("subsystem", "httpapi"),
		Metrics:    httpapi.NewMetrics(reg),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsListen != "" {
		metricsSrv = startMetricsServer(cfg.MetricsListen, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.server.listening",
			"addr", cfg.Listen, "mode", mode, "datastore", cfg.DataStore, "version", version.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		shutdownAux(metricsSrv, mockSrv)
		return err
	case <-ctx.Done():
	}

	logger.Info("http.server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	shutdownAux(metricsSrv, mockSrv)
	return err
}

func shutdownAux(servers ...*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if s != nil {
			_ = s.Shutdown(ctx)
		}
	}
}

func startMetricsServer(addr string, handler http.Handler, logger pslog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.server.listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics.server.failed", "error", err)
		}
	}()
	return srv
}
