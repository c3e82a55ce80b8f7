// Package mcpserver hosts the memq operations as MCP tools over streamable
// HTTP.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/tools"
)

// Server identity reported during MCP initialization.
const (
	Name    = "mem-ontology-server"
	Version = "1.0.0"
)

// MCPPath is where the streamable HTTP transport is mounted.
const MCPPath = "/mcp"

const shutdownTimeout = 5 * time.Second

// Server couples the MCP tool registry with its HTTP routes.
type Server struct {
	svc    *tools.Service
	mcp    *server.MCPServer
	router chi.Router
	logger *slog.Logger
}

// New registers every catalog operation as an MCP tool.
func New(svc *tools.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		mcp:    server.NewMCPServer(Name, Version, server.WithToolCapabilities(false)),
		router: chi.NewRouter(),
		logger: logger,
	}
	for _, t := range svc.Catalog() {
		s.mcp.AddTool(toolDefinition(t), s.handler(t.Name))
	}
	s.routes()
	return s
}

// MCP exposes the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Handle(MCPPath, server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(MCPPath)))
}

// toolDefinition converts a catalog entry to an MCP tool schema. Integer
// parameters are declared as JSON numbers with bounds.
func toolDefinition(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Kind {
		case tools.KindInteger:
			if p.Min != 0 || p.Max != 0 {
				props = append(props, mcp.Min(float64(p.Min)), mcp.Max(float64(p.Max)))
			}
			if p.Default != 0 {
				props = append(props, mcp.DefaultNumber(float64(p.Default)))
			}
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logger.Info("mcp: tool call", "tool", name)
		out, err := s.svc.Call(ctx, name, req.GetArguments())
		if err != nil {
			if apperr.IsUserError(err) {
				s.logger.Debug("mcp: tool rejected", "tool", name, "code", apperr.CodeOf(err), "error", err)
			} else {
				s.logger.Warn("mcp: tool failed", "tool", name, "code", apperr.CodeOf(err), "error", err)
			}
			return mcp.NewToolResultError(message(err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// message returns the caller-facing text of an error: the typed message
// when one is present, the full chain otherwise.
func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Info("mcp: listening", "addr", ln.Addr().String(), "path", MCPPath)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("mcp: shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
