package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"sana/internal/consul"

	"github.com/gin-gonic/gin"
)

// ProxyHandler forwards authenticated traffic to backend services resolved
// through Consul.
type ProxyHandler struct {
	discovery consul.ServiceDiscovery
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(discovery consul.ServiceDiscovery) *ProxyHandler {
	return &ProxyHandler{discovery: discovery}
}

// ProxyWithPathRewrite proxies requests after stripping a route prefix.
// Example: /api/plans/today -> /plans/today on the guidance service.
func (h *ProxyHandler) ProxyWithPathRewrite(serviceName, stripPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL, ok := h.resolve(c, serviceName)
		if !ok {
			return
		}

		c.Set("upstream_service", serviceName)

		proxy := httputil.NewSingleHostReverseProxy(targetURL)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("Proxy error", "service", serviceName, "error", err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"bad gateway"}`))
		}

		originalDirector := proxy.Director
		proxy.Director = func(req *http.Request) {
			originalDirector(req)
			req.URL.Scheme = targetURL.Scheme
			req.URL.Host = targetURL.Host
			req.Host = targetURL.Host

			if stripPrefix != "" {
				req.URL.Path = strings.TrimPrefix(req.URL.Path, stripPrefix)
				if req.URL.Path == "" {
					req.URL.Path = "/"
				}
			}
		}

		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// resolve discovers one healthy instance and parses its base URL, answering
// the request itself when the service is unavailable.
func (h *ProxyHandler) resolve(c *gin.Context, serviceName string) (*url.URL, bool) {
	instance, err := h.discovery.DiscoverOne(serviceName)
	if err != nil {
		slog.Warn("Failed to discover service",
			"service", serviceName,
			"error", err.Error(),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": fmt.Sprintf("service %s unavailable", serviceName),
		})
		return nil, false
	}

	targetURL, err := url.Parse(fmt.Sprintf("http://%s:%d", instance.Address, instance.Port))
	if err != nil {
		slog.Error("Failed to parse target URL", "service", serviceName, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return targetURL, true
}
