package prometheus

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Handler serves the metrics gathered by gatherer in the Prometheus text format
func Handler(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// OtherLabel replaces the method or path of a request outside the known set
const OtherLabel = "other"

// Middleware records a request count and duration for every request next
// serves. A path keeps its own label only when it is listed in routes; a
// route ending in "*" matches every path with that prefix and labels it with
// the route. All other paths and non-standard methods are labelled OtherLabel.
func (m *Metrics) Middleware(next fasthttp.RequestHandler, routes ...string) fasthttp.RequestHandler {
	pathLabel := routeLabeler(routes)
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		m.RecordHTTPRequest(
			methodLabel(ctx.Method()),
			pathLabel(ctx.Path()),
			statusCodeString(ctx.Response.StatusCode()),
			time.Since(start),
		)
	}
}

func routeLabeler(routes []string) func(path []byte) string {
	exact := make(map[string]struct{}, len(routes))
	var prefixes []string
	for _, route := range routes {
		if prefix, ok := strings.CutSuffix(route, "*"); ok {
			prefixes = append(prefixes, prefix)
			continue
		}
		exact[route] = struct{}{}
	}

	return func(path []byte) string {
		if _, ok := exact[string(path)]; ok {
			return string(path)
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(string(path), prefix) {
				return prefix + "*"
			}
		}
		return OtherLabel
	}
}

func methodLabel(method []byte) string {
	switch m := string(method); m {
	case fasthttp.MethodGet, fasthttp.MethodHead, fasthttp.MethodPost, fasthttp.MethodPut,
		fasthttp.MethodPatch, fasthttp.MethodDelete, fasthttp.MethodOptions:
		return m
	}
	return OtherLabel
}

func statusCodeString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return strconv.Itoa(code)
	}
}
