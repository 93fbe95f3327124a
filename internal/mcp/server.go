package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"resumerag/internal/domain"
)

// ErrMissingService is returned when no resume service is supplied.
var ErrMissingService = errors.New("resume service is required")

// Service is the part of the resume pipeline exposed as MCP tools.
type Service interface {
	Ingest(ctx context.Context, docName, rawText string) ([]string, error)
	ListDocuments(ctx context.Context) ([]string, error)
	Answer(ctx context.Context, question string, history ...domain.Turn) (string, error)
	Screen(ctx context.Context, jobDesc string, docNames []string) ([]domain.ScreeningResult, error)
	Compare(ctx context.Context, jobDesc string, docNames []string) (string, error)
}

// Server wraps the MCP server with its service.
type Server struct {
	server *mcp.Server
	svc    Service
}

// NewServer creates an MCP server with every tool registered.
func NewServer(svc Service, version string) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "resumerag", Version: version}, nil),
		svc:    svc,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the same tools over streamable HTTP.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}
