// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qpproj/projectio/internal/manifest"
)

// MetadataDetectManifestFormat describes the detect_manifest_format tool.
var MetadataDetectManifestFormat = &mcp.Tool{
	Name: "detect_manifest_format",
	Description: "Report whether raw manifest content uses the current versioned layout or the " +
		"legacy layout. The presence of a top-level \"version\" key selects the versioned layout. " +
		"Content whose top level is not an object is rejected as malformed.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw manifest content (JSON or YAML)",
			},
		},
	},
}

// InputDetectManifestFormat is the input for the DetectManifestFormat tool.
type InputDetectManifestFormat struct {
	Content string `json:"content"`
}

// OutputDetectManifestFormat is the output for the DetectManifestFormat tool.
type OutputDetectManifestFormat struct {
	Format string `json:"format"`
}

// DetectManifestFormat classifies raw manifest content.
func DetectManifestFormat(_ context.Context, _ *mcp.CallToolRequest, input InputDetectManifestFormat) (*mcp.CallToolResult, OutputDetectManifestFormat, error) {
	if input.Content == "" {
		return nil, OutputDetectManifestFormat{}, fmt.Errorf("content is required")
	}
	format, err := manifest.Sniff([]byte(input.Content))
	if err != nil {
		return nil, OutputDetectManifestFormat{}, err
	}
	return nil, OutputDetectManifestFormat{Format: format.String()}, nil
}
