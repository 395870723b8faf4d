// SPDX-License-Identifier: Apache-2.0

// Package tool exposes project loading and classifier discovery as MCP tools.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/qpproj/projectio/internal/config"
	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/manifest/readers"
)

// Handlers carries what the tool handlers need between calls.
type Handlers struct {
	loader     *manifest.Loader[any]
	classifier config.Classifier
}

// NewHandlers builds handlers from configuration.
func NewHandlers(cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		loader: readers.NewDefaultLoader[any](
			manifest.WithLogger(logger.Named("loader")),
			manifest.WithMaxManifestBytes(cfg.Loader.MaxManifestBytes),
		),
		classifier: config.Classifier{
			Variant: strings.ToLower(cfg.Classifier.Variant),
			K:       cfg.Classifier.K,
		},
	}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(name, version string, h *Handlers) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    name,
			Version: version,
		},
		nil,
	)
	mcp.AddTool(server, MetadataLoadProject, h.LoadProject)
	mcp.AddTool(server, MetadataDetectManifestFormat, DetectManifestFormat)
	mcp.AddTool(server, MetadataListClassifiers, h.ListClassifiers)
	return server
}

// Serve runs the server on the stdio transport until ctx is done or the
// client disconnects.
func Serve(ctx context.Context, server *mcp.Server, logger *zap.Logger) error {
	logger.Info("starting MCP server on stdio transport")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
