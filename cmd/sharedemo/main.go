// Command sharedemo serves a shared counter and a board of ticking workers
// over HTTP.
//
//	GET  /counter               current hit counter
//	POST /counter?delta=N       add N to the counter
//	GET  /board                 per-worker tick counts
//	GET  /board/wait?since=V    long-poll until the board passes version V
//	GET  /config                live configuration
//	GET  /workers               worker status
//	POST /workers/{spawn,pause,resume,remove}?name=W
//	GET  /metrics               Prometheus metrics (when enabled)
//
// A second listener on server.stream_addr serves GET /board/stream, a
// websocket that receives the board after every change. When started with
// -config, edits to worker.count in the file start or stop tickers.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadshare/pkg/config"
	metrics "github.com/fluxorio/threadshare/pkg/observability/prometheus"
	"github.com/fluxorio/threadshare/pkg/share"
	"github.com/fluxorio/threadshare/pkg/worker"
)

func main() {
	configPath := flag.String("config", os.Getenv("THREADSHARE_CONFIG"), "path to a YAML or JSON config file")
	dumpPath := flag.String("dump-config", "", "write the effective config to this path and exit")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dumpPath != "" {
		if err := config.Save(*dumpPath, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		return
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Worker.Tracing {
		shutdownTracing, err := setupTracing(os.Stderr)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Errorf("tracer shutdown: %v", err)
			}
		}()
	}

	var (
		shareOpts  = cfg.ShareOptions(logger)
		workerOpts = cfg.WorkerOptions(logger)
		gatherer   prometheus.Gatherer
		m          *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m = metrics.NewMetrics(reg, cfg.Metrics.Namespace)
		gatherer = reg
		shareOpts = append(shareOpts, share.WithObserver(m))
		workerOpts = append(workerOpts, worker.WithObserver(m))
	}

	app := newApp(cfg, shareOpts, workerOpts, logger)
	if err := app.reconcile(cfg.Worker.Count); err != nil {
		logger.Errorf("start tickers: %v", err)
	}
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, app.live, logger); err != nil && ctx.Err() == nil {
				logger.Errorf("config watch: %v", err)
			}
		}()
		go app.followConfig(ctx, app.live.Version())
	}

	handler := app.handler(gatherer)
	if m != nil {
		handler = m.Middleware(handler, routes...)
	}
	server := &fasthttp.Server{
		Handler: handler,
		Name:    "sharedemo",
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	var streamServer *http.Server
	if cfg.Server.StreamAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/board/stream", newBoardStream(app.board.Cell(), cfg.Server.StreamRate, logger))
		streamServer = &http.Server{
			Addr:        cfg.Server.StreamAddr,
			Handler:     mux,
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		go func() {
			logger.Infof("streaming board on %s", cfg.Server.StreamAddr)
			if err := streamServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Errorf("server stopped: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if streamServer != nil {
		if err := streamServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("stream server shutdown: %v", err)
		}
	}
	if err := app.board.Manager().RemoveAllWorkers(); err != nil {
		logger.Errorf("worker shutdown: %v", err)
	}
	logger.Infof("final counter %d, board version %d", app.hits.Get(), app.board.Cell().Version())
}
