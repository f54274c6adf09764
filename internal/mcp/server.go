// Package mcp exposes the matcher engine over the Model Context Protocol
// using the mcp-go library.
//
// Two tools are served: query_context resolves a free-text query to a
// knowledge document, and list_contexts enumerates the rule catalog. Each
// backing document is additionally addressable as a docs:// resource.
// Communication runs over stdio (JSON-RPC 2.0) locally, or streamable HTTP
// when configured for production.
package mcp

import (
	"errors"
	"fmt"
	"strings"

	"fgactx/internal/config"
	"fgactx/internal/docstore"
	"fgactx/internal/logging"
	"fgactx/internal/matcher"

	"github.com/mark3labs/mcp-go/server"
)

const serverName = "fgactx"

// Version is set at build time via ldflags.
var Version = "dev"

// Server wires the matcher engine and document store into an MCP server.
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	engine    *matcher.Engine
	store     *docstore.Store
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server instance around an initialized engine.
func NewServer(cfg *config.Config, engine *matcher.Engine, store *docstore.Store, logger *logging.AppLogger) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		engine: engine,
		store:  store,
	}
}

// Start registers tools and resources and serves on the configured
// transport. It blocks until the transport shuts down.
func (s *Server) Start() error {
	s.logger.Info("Initializing MCP server",
		"transport", s.config.Transport,
		"ruleCount", len(s.engine.Rules()),
	)

	s.mcpServer = server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.registerTools()
	s.registerResources()

	switch s.config.Transport {
	case config.TransportHTTP:
		s.logger.Info("Serving MCP over streamable HTTP", "addr", s.config.HTTPAddr)
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		if err := httpServer.Start(s.config.HTTPAddr); err != nil {
			return fmt.Errorf("MCP HTTP server failed: %w", err)
		}
	case config.TransportStdio:
		s.logger.Info("Serving MCP over stdio")
		if err := server.ServeStdio(s.mcpServer); err != nil {
			return fmt.Errorf("MCP stdio server failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported transport: %q", s.config.Transport)
	}

	return nil
}

// isDocumentNotFound reports whether err is a missing-document failure from
// the store, as opposed to any other serving error.
func isDocumentNotFound(err error) bool {
	var dnf *docstore.DocumentNotFoundError
	return errors.As(err, &dnf)
}

// serverInstructions tells connected assistants when to reach for the
// query_context tool.
func serverInstructions() string {
	var b strings.Builder
	b.WriteString("This server provides authoritative guidance documents for working with OpenFGA.\n\n")
	b.WriteString("Call query_context with the user's question whenever they ask about ")
	b.WriteString("authorization models, relationship-based access control, OpenFGA APIs, or SDK integration. ")
	b.WriteString("The matching is keyword-based: pass the question verbatim rather than a rephrased summary.\n\n")
	b.WriteString("Call list_contexts to see every available guidance document and its trigger keywords.")
	return b.String()
}
