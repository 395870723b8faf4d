// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpproj/projectio/internal/config"
	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/project"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), project.DefaultManifestName())
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProject(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	h := NewHandlers(config.Default(), nil)

	tests := []struct {
		name           string
		input          InputLoadProject
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputLoadProject)
	}{
		{
			name:        "empty location returns error",
			input:       InputLoadProject{},
			wantErr:     true,
			errContains: "location is required",
		},
		{
			name:  "versioned manifest",
			input: InputLoadProject{Location: writeManifest(t, `{"version":1,"name":"demo","createTimestamp":1500000000000,"images":[{"entryID":1,"imageName":"a","serverPath":"/a.tif"}]}`)},
			validateOutput: func(t *testing.T, output OutputLoadProject) {
				assert.Equal(t, "demo", output.Name)
				assert.Equal(t, "versioned", output.Format)
				assert.Equal(t, "1", output.Version)
				assert.Equal(t, "2017-07-14T02:40:00Z", output.CreatedAt)
				assert.Empty(t, output.ModifiedAt)
				assert.Equal(t, []ImageSummary{{ID: 1, Name: "a", Path: "/a.tif"}}, output.Images)
			},
		},
		{
			name:  "legacy manifest",
			input: InputLoadProject{Location: writeManifest(t, `{"name":"old-demo","images":[{"path":"/x/b.tif"}]}`)},
			validateOutput: func(t *testing.T, output OutputLoadProject) {
				assert.Equal(t, "old-demo", output.Name)
				assert.Equal(t, "legacy", output.Format)
				assert.Empty(t, output.Version)
				assert.Equal(t, 1, output.LastID)
				assert.Equal(t, []ImageSummary{{ID: 1, Name: "b.tif", Path: "/x/b.tif"}}, output.Images)
			},
		},
		{
			name:        "schema violation names the failure kind",
			input:       InputLoadProject{Location: writeManifest(t, `{"version":1}`)},
			wantErr:     true,
			errContains: "schema_violation",
		},
		{
			name:        "missing file names the failure kind",
			input:       InputLoadProject{Location: filepath.Join(t.TempDir(), "missing.qpproj")},
			wantErr:     true,
			errContains: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, output, err := h.LoadProject(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestLoadProject_RespectsManifestLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Loader.MaxManifestBytes = 8
	h := NewHandlers(cfg, nil)

	_, _, err := h.LoadProject(context.Background(), nil, InputLoadProject{Location: writeManifest(t, `{"version":1,"name":"demo"}`)})
	require.ErrorIs(t, err, manifest.ErrManifestTooLarge)
	assert.True(t, strings.HasPrefix(err.Error(), "io: "))
}

func TestDetectManifestFormat(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		want        string
		errContains string
	}{
		{name: "versioned", content: `{"version":1,"name":"demo"}`, want: "versioned"},
		{name: "legacy", content: `{"name":"old-demo"}`, want: "legacy"},
		{name: "yaml legacy", content: "name: old-demo\n", want: "legacy"},
		{name: "empty", content: "", errContains: "content is required"},
		{name: "scalar", content: "42", errContains: "malformed manifest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := DetectManifestFormat(context.Background(), &mcp.CallToolRequest{}, InputDetectManifestFormat{Content: tt.content})
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Format)
		})
	}
}

func TestListClassifiers(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Variant = "KNearest"
	h := NewHandlers(cfg, nil)

	_, out, err := h.ListClassifiers(context.Background(), &mcp.CallToolRequest{}, InputListClassifiers{})
	require.NoError(t, err)
	assert.Equal(t, []ClassifierInfo{
		{Variant: "dtrees", Name: "Decision Trees", SupportsAutoUpdate: true, Selected: false},
		{Variant: "knearest", Name: "K Nearest", SupportsAutoUpdate: false, Selected: true},
	}, out.Classifiers)
}

func TestListClassifiers_InitErrorPropagates(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Variant = "knearest"
	cfg.Classifier.K = 0
	h := NewHandlers(cfg, nil)

	_, _, err := h.ListClassifiers(context.Background(), &mcp.CallToolRequest{}, InputListClassifiers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier initialization failed")
}

func TestNewServer(t *testing.T) {
	server := NewServer("projectio", "test", NewHandlers(config.Default(), nil))
	assert.NotNil(t, server)
}
