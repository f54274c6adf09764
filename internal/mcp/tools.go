package mcp

import (
	"context"
	"fmt"
	"strings"

	"fgactx/internal/matcher"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools adds the two protocol operations to the MCP server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("query_context",
			mcp.WithDescription("Look up OpenFGA guidance for a natural-language question. "+
				"Returns the full guidance document whose trigger keywords appear in the query, "+
				"or the list of available contexts when nothing matches."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("The user's question, passed verbatim. Example: \"How do I create an OpenFGA authorization model?\""),
			),
		),
		s.handleQueryContext,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_contexts",
			mcp.WithDescription("List every available guidance context: its description, "+
				"backing document, and the keywords that trigger it."),
		),
		s.handleListContexts,
	)
}

func (s *Server) handleQueryContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	resolved, err := s.engine.ContextForQuery(query)
	if err != nil {
		// A matched rule with missing backing content is a server-side
		// fault, reported as a tool error without crashing the process.
		s.logger.Error("Context resolution failed", "error", err)
		if isDocumentNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("matched context document is unavailable: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("context lookup failed: %v", err)), nil
	}

	if !resolved.MatchFound {
		return mcp.NewToolResultText(s.fallbackListing(query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", resolved.Rule.Description)
	b.WriteString(resolved.Content)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListContexts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("Available contexts:\n")
	for _, rule := range s.engine.Rules() {
		writeRuleSummary(&b, rule, true)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// fallbackListing is the no-match payload: the caller gets every rule's
// description and patterns so it can rephrase or pick directly.
func (s *Server) fallbackListing(query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No context matched the query %q.\n\nAvailable contexts:\n", query)
	for _, rule := range s.engine.Rules() {
		writeRuleSummary(&b, rule, false)
	}
	return b.String()
}

func writeRuleSummary(b *strings.Builder, rule matcher.Rule, includeRef bool) {
	fmt.Fprintf(b, "\n- %s\n", rule.Description)
	if includeRef {
		fmt.Fprintf(b, "  document: %s%s\n", resourceScheme, rule.DocumentRef)
	}
	fmt.Fprintf(b, "  keywords: %s\n", strings.Join(rule.Patterns, ", "))
}
