package prometheus_test

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	metrics "github.com/fluxorio/threadshare/pkg/observability/prometheus"
)

func TestHandler_ServesMetrics(t *testing.T) {
	m, reg := newMetrics(t)

	mux := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/metrics":
			metrics.Handler(reg)(ctx)
		case "/ok":
			ctx.SetStatusCode(fasthttp.StatusOK)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()
	go func() {
		_ = (&fasthttp.Server{Handler: m.Middleware(mux, "/ok", "/metrics")}).Serve(ln)
	}()

	client := &http.Client{
		Transport: &http.Transport{
			Dial: func(network, addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}

	for _, path := range []string{"/ok", "/ok", "/missing", "/missing/deeper"} {
		resp, err := client.Get("http://test" + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	resp, err := client.Get("http://test/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`test_http_requests_total{method="GET",path="/ok",status="2xx"} 2`,
		`test_http_requests_total{method="GET",path="other",status="4xx"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if strings.Contains(string(body), `path="/missing"`) {
		t.Error("unlisted path got its own label")
	}
}

func TestMiddleware_BoundedLabels(t *testing.T) {
	m, _ := newMetrics(t)
	h := m.Middleware(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}, "/items", "/items/*")

	serve := func(method, uri string) {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetMethod(method)
		ctx.Request.SetRequestURI(uri)
		h(&ctx)
	}
	for i := 0; i < 50; i++ {
		serve(fasthttp.MethodGet, fmt.Sprintf("/scan/%d", i))
		serve(fasthttp.MethodGet, fmt.Sprintf("/items/%d", i))
	}
	serve(fasthttp.MethodGet, "/items")
	serve("BREW", "/items")

	tests := []struct {
		method, path string
		want         float64
	}{
		{"GET", "other", 50},
		{"GET", "/items/*", 50},
		{"GET", "/items", 1},
		{"other", "/items", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(tt.method, tt.path, "4xx"))
		if got != tt.want {
			t.Errorf("requests{%s %s} = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 4 {
		t.Errorf("request series = %d, want 4", got)
	}
}
