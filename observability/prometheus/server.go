package prometheus

import (
	"net"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// MetricsPath is the scrape path served by MetricsServer.
const MetricsPath = "/metrics"

// MetricsServer exposes a Prometheus gatherer over fasthttp.
type MetricsServer struct {
	server *fasthttp.Server
}

// NewMetricsServer serves gatherer on MetricsPath. A nil gatherer serves the
// default registry.
func NewMetricsServer(gatherer prom.Gatherer) *MetricsServer {
	if gatherer == nil {
		gatherer = prom.DefaultGatherer
	}
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case MetricsPath:
			metricsHandler(ctx)
		case "/live":
			ctx.SetContentType("text/plain")
			ctx.SetBodyString("ok")
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	return &MetricsServer{
		server: &fasthttp.Server{
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks serving addr until Shutdown is called.
func (s *MetricsServer) ListenAndServe(addr string) error {
	return s.server.ListenAndServe(addr)
}

// Serve blocks serving ln until Shutdown is called.
func (s *MetricsServer) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections and waits for open ones to finish.
func (s *MetricsServer) Shutdown() error {
	return s.server.Shutdown()
}
