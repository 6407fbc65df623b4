package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"kunena-discord/grpc"
	"kunena-discord/handlers"
	"kunena-discord/metrics"
	"kunena-discord/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Run serves the detection proxy, the ops endpoints and the schedule until ctx
// is cancelled, then shuts everything down and waits for deferred checks.
func (b *Bot) Run(ctx context.Context) error {
	cfg := b.Config

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(reg)

	hooks := handlers.NewHooks(b.Scanner, cfg.Forum.AdminPrefix, utils.Module(b.root, "hooks"))
	errCh := make(chan error, 2)
	var servers []*http.Server

	if cfg.Proxy.Upstream != "" {
		upstream, err := url.Parse(cfg.Proxy.Upstream)
		if err != nil || upstream.Scheme == "" || upstream.Host == "" {
			return fmt.Errorf("invalid proxy.upstream %q", cfg.Proxy.Upstream)
		}
		proxy := handlers.NewForumProxy(upstream, utils.Module(b.root, "proxy"))
		servers = append(servers, b.listen("proxy", cfg.Proxy.Listen, handlers.NewProxyRouter(proxy, hooks), errCh))
	} else {
		b.log.Warn().Msg("proxy.upstream not set, request hooks disabled")
	}

	if cfg.Ops.Listen != "" {
		ready := func() error { return b.Forum.Ping(context.Background()) }
		servers = append(servers, b.listen("ops", cfg.Ops.Listen, handlers.NewOpsRouter(reg, ready), errCh))
	}

	var health *grpc.HealthServer
	if cfg.Ops.GRPCListen != "" {
		var err error
		if health, err = grpc.NewHealthServer(cfg.Ops.GRPCListen, utils.Module(b.root, "health")); err != nil {
			shutdownServers(servers)
			return err
		}
		health.Start()
	}

	var scheduler *Scheduler
	if cfg.Schedule.Enabled {
		var err error
		if scheduler, err = NewScheduler(cfg.Schedule, b.Scanner, utils.Module(b.root, "scheduler")); err != nil {
			shutdownServers(servers)
			return err
		}
		scheduler.Start()
	}

	if cfg.Proxy.Upstream == "" && !cfg.Schedule.Enabled {
		b.log.Warn().Msg("no detection trigger enabled, nothing will be notified")
	}
	if health != nil {
		health.SetServing(true)
	}

	var runErr error
	select {
	case <-ctx.Done():
		b.log.Info().Msg("shutting down")
	case runErr = <-errCh:
		b.log.Error().Err(runErr).Msg("listener failed, shutting down")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if health != nil {
		health.SetServing(false)
	}
	for _, srv := range servers {
		if err := srv.Shutdown(shCtx); err != nil {
			b.log.Error().Err(err).Str("addr", srv.Addr).Msg("graceful shutdown failed")
		}
	}
	if err := hooks.Wait(shCtx); err != nil {
		b.log.Warn().Err(err).Msg("deferred checks still running at shutdown")
	}
	if scheduler != nil {
		scheduler.Stop(shCtx)
	}
	if health != nil {
		health.Stop(shCtx)
	}
	return runErr
}

func (b *Bot) listen(name, addr string, h http.Handler, errCh chan<- error) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		b.log.Info().Str("server", name).Str("addr", addr).Msg("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
	return srv
}

func shutdownServers(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(ctx)
	}
}
