package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

const (
	Name    = "agentic-curie"
	Version = "1.0.0"
)

var (
	ErrMissingToolbox = errors.New("toolbox is required")
	ErrMissingFiles   = errors.New("file repository is required")
)

type Options struct {
	// AllowLocalFiles registers the add_file tool, which reads paths on the
	// host running the server. Only the stdio transport enables it.
	AllowLocalFiles bool
}

type Server struct {
	tools  *services.Toolbox
	files  repositories.FileRepository
	opts   Options
	server *mcp.Server
	logger *zap.Logger
}

func NewServer(tools *services.Toolbox, files repositories.FileRepository, opts Options, log *zap.Logger) (*Server, error) {
	if tools == nil {
		return nil, ErrMissingToolbox
	}
	if files == nil {
		return nil, ErrMissingFiles
	}

	s := &Server{
		tools:  tools,
		files:  files,
		opts:   opts,
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		logger: logger.OrNop(log),
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("🔌 MCP server running on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns the streamable HTTP transport for mounting under /mcp.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("🔌 MCP server listening", zap.String("addr", addr))
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
