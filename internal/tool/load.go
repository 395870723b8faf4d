// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/project"
)

// MetadataLoadProject describes the load_project tool.
var MetadataLoadProject = &mcp.Tool{
	Name: "load_project",
	Description: "Load a project manifest from a local path or file:// URI and return its normalized " +
		"summary. Both the current versioned layout and the legacy layout (no \"version\" key) are " +
		"accepted; the response reports which one was detected. On failure the error names the " +
		"failure kind (not_found, parse, malformed, schema_violation, legacy_format_violation, ...).",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"location"},
		"properties": map[string]interface{}{
			"location": map[string]interface{}{
				"type":        "string",
				"description": "Path or file:// URI of the project manifest (usually project.qpproj)",
			},
		},
	},
}

// InputLoadProject is the input for the LoadProject tool.
type InputLoadProject struct {
	Location string `json:"location"`
}

// ImageSummary is one image entry in a project summary.
type ImageSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// OutputLoadProject is the output for the LoadProject tool.
type OutputLoadProject struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Format       string         `json:"format"`
	Version      string         `json:"version,omitempty"`
	ManifestPath string         `json:"manifest_path"`
	CreatedAt    string         `json:"created_at,omitempty"`
	ModifiedAt   string         `json:"modified_at,omitempty"`
	LastID       int            `json:"last_id"`
	Images       []ImageSummary `json:"images"`
}

// Summarize flattens a loaded project into the tool output shape.
func Summarize[T any](p *project.Project[T]) OutputLoadProject {
	out := OutputLoadProject{
		ID:           p.ID,
		Name:         p.Name,
		Format:       p.Format,
		Version:      p.Version,
		ManifestPath: p.ManifestPath,
		CreatedAt:    formatTime(p.CreatedAt),
		ModifiedAt:   formatTime(p.ModifiedAt),
		LastID:       p.LastID,
		Images:       make([]ImageSummary, 0, len(p.Images)),
	}
	for _, img := range p.Images {
		out.Images = append(out.Images, ImageSummary{ID: img.ID, Name: img.Name, Path: img.Path})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// LoadProject loads the manifest at input.Location.
func (h *Handlers) LoadProject(ctx context.Context, _ *mcp.CallToolRequest, input InputLoadProject) (*mcp.CallToolResult, OutputLoadProject, error) {
	if input.Location == "" {
		return nil, OutputLoadProject{}, fmt.Errorf("location is required")
	}

	p, err := h.loader.Load(ctx, input.Location)
	if err != nil {
		var failure *manifest.LoadFailure
		if errors.As(err, &failure) {
			return nil, OutputLoadProject{}, fmt.Errorf("%s: %w", failure.Kind, failure.Err)
		}
		return nil, OutputLoadProject{}, err
	}
	return nil, Summarize(p), nil
}
