package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/backoffice/internal/config"
	"github.com/samvad-hq/backoffice/internal/logger"
	"github.com/samvad-hq/backoffice/pkg/httpclient"
)

const (
	// APIPrefix is the same-origin prefix forwarded to the backend.
	APIPrefix = "/api"

	shutdownTimeout = 10 * time.Second
)

// Gateway serves the same-origin API prefix by forwarding it to the backend
// with the prefix stripped. It runs in server context and never reads tokens.
type Gateway struct {
	cfg      *config.Config
	log      logger.Logger
	upstream *url.URL
	engine   *gin.Engine
	client   *httpclient.Client
}

// NewGateway builds the gateway from config. gateway_upstream falls back to api_url.
func NewGateway(cfg *config.Config, log logger.Logger) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	raw := strings.TrimSpace(cfg.GatewayUpstream)
	if raw == "" {
		raw = strings.TrimSpace(cfg.APIURL)
	}
	if raw == "" {
		return nil, fmt.Errorf("gateway_upstream (or api_url) is required")
	}
	upstream, err := url.Parse(raw)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid gateway upstream %q", raw)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	g := &Gateway{
		cfg:      cfg,
		log:      log,
		upstream: upstream,
		engine:   gin.New(),
		client: httpclient.New(httpclient.Config{
			FallbackBaseURL: upstream.String(),
			Context:         httpclient.ServerContext{},
			Timeout:         5 * time.Second,
			Logger:          log,
		}),
	}
	g.engine.Use(gin.Recovery(), g.accessLog())
	g.routes()
	return g, nil
}

func (g *Gateway) routes() {
	proxy := g.newProxy()
	g.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.engine.GET("/readyz", g.ready)
	g.engine.Any(APIPrefix+"/*path", func(c *gin.Context) {
		c.Request.URL.Path = c.Param("path")
		c.Request.URL.RawPath = ""
		proxy.ServeHTTP(c.Writer, c.Request)
	})
}

// newProxy forwards to the upstream, joining its path with the stripped request path.
func (g *Gateway) newProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(g.upstream)
			r.SetXForwarded()
			r.Out.Host = g.upstream.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.log.ErrorObj("gateway upstream failed", "gateway_error", map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"error":  err.Error(),
			})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream unavailable"}`))
		},
	}
}

// ready probes the upstream root with a raw request; any HTTP answer counts as reachable.
func (g *Gateway) ready(c *gin.Context) {
	res, err := g.client.Get(c.Request.Context(), "/", &httpclient.Options{Raw: true})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	res.Response.Body.Close()
	c.JSON(http.StatusOK, gin.H{"status": "ready", "upstream_status": res.StatusCode})
}

// accessLog logs one line per request through the structured logger.
func (g *Gateway) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		entry := map[string]any{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			g.log.ErrorObj("gateway request", "http_access", entry)
		case status >= http.StatusBadRequest:
			g.log.WarnObj("gateway request", "http_access", entry)
		default:
			g.log.DebugObj("gateway request", "http_access", entry)
		}
	}
}

// Handler exposes the gateway as an http.Handler.
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              g.cfg.GatewayAddr,
		Handler:           g.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.log.InfoObj("gateway listening", "gateway_meta", map[string]any{
			"addr":     g.cfg.GatewayAddr,
			"upstream": g.upstream.String(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway serve: %w", err)
	case <-ctx.Done():
		g.log.InfoObj("gateway shutting down", "reason", ctx.Err().Error())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
