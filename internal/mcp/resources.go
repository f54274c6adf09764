package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// resourceScheme prefixes every document resource URI; the remainder is the
// document's file name within the docs directory.
const resourceScheme = "docs://"

// registerResources exposes each rule's backing document as an individually
// retrievable MCP resource with a markdown content type. Registration never
// fails on a broken document; the read handler reports the failure when the
// resource is actually retrieved.
func (s *Server) registerResources() {
	seen := make(map[string]bool)

	for _, rule := range s.engine.Rules() {
		ref := rule.DocumentRef
		if seen[ref] {
			continue
		}
		seen[ref] = true

		uri := resourceScheme + ref

		// Prefer the document's own frontmatter description; fall back to
		// the rule label when the file has none or is not yet readable.
		description := rule.Description
		if meta, _, err := s.store.Describe(ref); err == nil && meta.Description != "" {
			description = meta.Description
		}

		s.mcpServer.AddResource(
			mcp.NewResource(uri, ref,
				mcp.WithResourceDescription(description),
				mcp.WithMIMEType("text/markdown"),
			),
			s.documentReader(uri, ref),
		)

		s.logger.Debug("Registered document resource", "uri", uri)
	}
}

// documentReader returns the read handler for a single document resource.
func (s *Server) documentReader(uri, ref string) func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		content, err := s.store.Load(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", uri, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     content,
			},
		}, nil
	}
}
