package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadshare/pkg/config"
	"github.com/fluxorio/threadshare/pkg/logging"
	metrics "github.com/fluxorio/threadshare/pkg/observability/prometheus"
	"github.com/fluxorio/threadshare/pkg/share"
	"github.com/fluxorio/threadshare/pkg/worker"
)

const (
	tickInterval   = 100 * time.Millisecond
	maxWaitTimeout = 30 * time.Second
)

// Board holds one tick count per ticker worker
type Board struct {
	Ticks map[string]int `json:"ticks" yaml:"ticks"`
	Total int            `json:"total" yaml:"total"`
}

func cloneBoard(b Board) Board {
	ticks := make(map[string]int, len(b.Ticks))
	for k, v := range b.Ticks {
		ticks[k] = v
	}
	return Board{Ticks: ticks, Total: b.Total}
}

type app struct {
	hits   *share.AtomicCell[int64]
	board  *worker.Shared[Board]
	live   *share.LockedCell[config.Config]
	logger logging.Logger
}

func newApp(cfg config.Config, shareOpts []share.Option, workerOpts []worker.Option, logger logging.Logger) *app {
	hitOpts := append([]share.Option{share.WithName("hits")}, shareOpts...)
	liveOpts := append([]share.Option{share.WithName("config")}, shareOpts...)
	boardOpts := append([]share.Option{
		share.WithName("board"),
		share.WithCloner(cloneBoard),
	}, shareOpts...)

	return &app{
		hits:   share.NewAtomic(int64(0), hitOpts...),
		board:  worker.NewSharedCell(share.NewLocked(Board{Ticks: map[string]int{}}, boardOpts...), workerOpts...),
		live:   share.NewLocked(cfg, liveOpts...),
		logger: logger,
	}
}

func tickerName(i int) string {
	return fmt.Sprintf("ticker-%d", i)
}

// spawnTicker starts a worker that bumps its own entry on the board until removed
func (a *app) spawnTicker(name string) error {
	return a.board.Spawn(name, func(cell *share.LockedCell[Board], ctl *worker.Control) {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for ctl.Checkpoint() {
			cell.Update(func(b *Board) {
				b.Ticks[name]++
				b.Total++
			})
			<-ticker.C
		}
	})
}

// reconcile starts or removes tickers so that ticker-0..ticker-(count-1) run.
// Workers spawned under other names are left alone.
func (a *app) reconcile(count int) error {
	var errs []error
	for i := 0; i < count; i++ {
		if err := a.spawnTicker(tickerName(i)); err != nil && !errors.Is(err, worker.ErrDuplicateName) {
			errs = append(errs, err)
		}
	}
	m := a.board.Manager()
	for _, name := range m.WorkerNames() {
		var i int
		if _, err := fmt.Sscanf(name, "ticker-%d", &i); err != nil || tickerName(i) != name || i < count {
			continue
		}
		if err := m.RemoveWorker(name); err != nil && !errors.Is(err, worker.ErrUnknownWorker) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// followConfig reconciles the tickers every time the live config moves past
// version since, until ctx is done.
func (a *app) followConfig(ctx context.Context, since uint64) {
	for {
		if err := a.live.Signal().WaitAfterContext(ctx, since); err != nil {
			return
		}
		since = a.live.Version()
		if err := a.reconcile(a.live.Get().Worker.Count); err != nil {
			a.logger.Errorf("reconcile workers: %v", err)
		}
	}
}

// routes are the paths handler serves, as labels for the request metrics
var routes = []string{"/metrics", "/counter", "/board", "/board/wait", "/config", "/workers", "/workers/*"}

func (a *app) handler(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	var metricsHandler fasthttp.RequestHandler
	if gatherer != nil {
		metricsHandler = metrics.Handler(gatherer)
	}

	return func(ctx *fasthttp.RequestCtx) {
		share.Increment(a.hits)

		method, path := string(ctx.Method()), string(ctx.Path())
		switch {
		case path == "/metrics" && metricsHandler != nil:
			metricsHandler(ctx)
		case path == "/counter" && method == fasthttp.MethodGet:
			a.writeCell(ctx, a.hits)
		case path == "/counter" && method == fasthttp.MethodPost:
			a.addCounter(ctx)
		case path == "/board" && method == fasthttp.MethodGet:
			a.writeCell(ctx, a.board.Cell())
		case path == "/board/wait" && method == fasthttp.MethodGet:
			a.waitBoard(ctx)
		case path == "/config" && method == fasthttp.MethodGet:
			a.writeCell(ctx, a.live)
		case path == "/workers" && method == fasthttp.MethodGet:
			a.writeJSON(ctx, fasthttp.StatusOK, a.board.Manager().Workers())
		case len(path) > len("/workers/") && path[:len("/workers/")] == "/workers/" && method == fasthttp.MethodPost:
			a.controlWorker(ctx, path[len("/workers/"):])
		default:
			a.writeError(ctx, fasthttp.StatusNotFound, fmt.Errorf("no route for %s %s", method, path))
		}
	}
}

func (a *app) addCounter(ctx *fasthttp.RequestCtx) {
	delta := int64(1)
	if raw := ctx.QueryArgs().Peek("delta"); len(raw) > 0 {
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			a.writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("invalid delta: %w", err))
			return
		}
		delta = v
	}
	a.writeJSON(ctx, fasthttp.StatusOK, map[string]int64{"value": share.Add(a.hits, delta)})
}

// waitBoard blocks until the board version passes ?since= or ?timeout= elapses
func (a *app) waitBoard(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	current := a.board.Cell().Version()
	since := current
	if raw := args.Peek("since"); len(raw) > 0 {
		v, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			a.writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("invalid since: %w", err))
			return
		}
		if v > current {
			a.writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("since %d is ahead of current version %d", v, current))
			return
		}
		since = v
	}
	timeout := time.Second
	if raw := args.Peek("timeout"); len(raw) > 0 {
		d, err := time.ParseDuration(string(raw))
		if err != nil {
			a.writeError(ctx, fasthttp.StatusBadRequest, fmt.Errorf("invalid timeout: %w", err))
			return
		}
		timeout = min(max(d, 0), maxWaitTimeout)
	}

	timedOut := a.board.Cell().Signal().WaitAfter(since, timeout)
	board, version := a.board.Cell().Snapshot()
	a.writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"version":   version,
		"timed_out": timedOut,
		"board":     board,
	})
}

func (a *app) controlWorker(ctx *fasthttp.RequestCtx, action string) {
	name := string(ctx.QueryArgs().Peek("name"))
	m := a.board.Manager()

	var err error
	switch action {
	case "spawn":
		err = a.spawnTicker(name)
	case "pause":
		err = m.PauseWorker(name)
	case "resume":
		err = m.ResumeWorker(name)
	case "remove":
		err = m.RemoveWorker(name)
	default:
		a.writeError(ctx, fasthttp.StatusNotFound, fmt.Errorf("unknown action %q", action))
		return
	}
	if err != nil {
		a.writeError(ctx, statusFor(err), err)
		return
	}
	if action == "remove" {
		a.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"removed": name})
		return
	}
	info, err := m.Status(name)
	if err != nil {
		a.writeError(ctx, statusFor(err), err)
		return
	}
	a.writeJSON(ctx, fasthttp.StatusOK, info)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, worker.ErrUnknownWorker):
		return fasthttp.StatusNotFound
	case errors.Is(err, worker.ErrDuplicateName):
		return fasthttp.StatusConflict
	case errors.Is(err, worker.ErrEmptyName):
		return fasthttp.StatusBadRequest
	default:
		return fasthttp.StatusInternalServerError
	}
}

func (a *app) writeCell(ctx *fasthttp.RequestCtx, cell json.Marshaler) {
	data, err := cell.MarshalJSON()
	if err != nil {
		a.writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func (a *app) writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Errorf("encode response: %v", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func (a *app) writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	if status >= fasthttp.StatusInternalServerError {
		a.logger.Errorf("%s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	a.writeJSON(ctx, status, map[string]string{"error": err.Error()})
}
