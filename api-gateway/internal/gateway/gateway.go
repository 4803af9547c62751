package gateway

import (
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"quickbite/pkg/apperr"
	"quickbite/pkg/logger"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	MarketURL    string
	AnalyticsURL string
}

type Gateway struct {
	config Config
	client HTTPClient
	log    *logger.Logger
}

func NewGateway(config Config, client HTTPClient, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		config: config,
		client: client,
		log:    log,
	}
}

func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "api-gateway",
	})
}

// analyticsPrefixes are served by analytics-svc; everything else under /api/
// and /uploads/ belongs to market-svc.
var analyticsPrefixes = []string{
	"/api/admin/reports/",
	"/api/restaurant/reports/",
	"/api/homepage/",
}

// Target picks the upstream base URL for path, or "" when no service owns it.
func (g *Gateway) Target(path string) string {
	if path == "/api/stats" {
		return g.config.AnalyticsURL
	}
	for _, prefix := range analyticsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return g.config.AnalyticsURL
		}
	}
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/uploads/") {
		return g.config.MarketURL
	}
	return ""
}

// ProxyRequest forwards r unchanged, cookies included, and streams the
// upstream response back.
func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	url := targetURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.log.Error("build upstream request", "url", url, "error", err)
		apperr.Write(w, err)
		return
	}
	req.ContentLength = r.ContentLength

	for k, v := range r.Header {
		req.Header[k] = v
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		req.Header.Set("X-Forwarded-For", host)
	}
	if id := logger.RequestID(r.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("proxy failed", "target", targetURL, "path", r.URL.Path, "error", err)
		apperr.Write(w, apperr.Upstream("upstream unavailable"))
		return
	}
	defer resp.Body.Close()

	// CORS is answered here, not by the upstreams.
	for k, v := range resp.Header {
		if strings.HasPrefix(k, "Access-Control-") {
			continue
		}
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		g.log.Warn("copy response", "path", r.URL.Path, "error", err)
	}
}

func (g *Gateway) RouteHandler(w http.ResponseWriter, r *http.Request) {
	target := g.Target(r.URL.Path)
	if target == "" {
		apperr.Write(w, apperr.NotFound("no route for %s", r.URL.Path))
		return
	}
	g.log.Debug("route", "method", r.Method, "path", r.URL.Path, "target", target)
	g.ProxyRequest(w, r, target)
}

func (g *Gateway) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.HealthCheck).Methods("GET")
	r.PathPrefix("/").HandlerFunc(g.RouteHandler)
	return r
}
