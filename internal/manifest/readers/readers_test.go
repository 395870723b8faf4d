// SPDX-License-Identifier: Apache-2.0

package readers_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/manifest/readers"
	"github.com/qpproj/projectio/internal/project"
)

type slideData struct {
	Score float64 `yaml:"score" json:"score"`
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), project.DefaultManifestName())
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func requireFailure(t *testing.T, err error, kind manifest.FailureKind) *manifest.LoadFailure {
	t.Helper()
	require.Error(t, err)
	var failure *manifest.LoadFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, kind, failure.Kind, "unexpected failure: %v", err)
	return failure
}

// commonFields strips what legitimately differs between the two layouts.
func commonFields[T any](p *project.Project[T]) project.Project[T] {
	c := *p
	c.Version = ""
	c.Format = ""
	c.Dir = ""
	c.ManifestPath = ""
	return c
}

// ---------------------------------------------------------------------------
// Scenarios through the default loader
// ---------------------------------------------------------------------------

func TestLoad_VersionedMinimal(t *testing.T) {
	path := writeManifest(t, `{"version":1,"name":"demo"}`)

	p, err := readers.Load[any](context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, "1", p.Version)
	assert.Equal(t, manifest.FormatVersioned.String(), p.Format)
	assert.Equal(t, project.DeriveID("demo"), p.ID)
	assert.Empty(t, p.Images)
	assert.Zero(t, p.LastID)
	assert.True(t, p.CreatedAt.IsZero())
}

func TestLoad_LegacyMinimal(t *testing.T) {
	path := writeManifest(t, `{"name":"old-demo"}`)

	p, err := readers.Load[any](context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "old-demo", p.Name)
	assert.Equal(t, manifest.FormatLegacy.String(), p.Format)
	assert.Empty(t, p.Version)
	assert.Empty(t, p.Description)
	assert.Equal(t, project.DeriveID("old-demo"), p.ID)
	assert.Empty(t, p.Images)
	assert.Zero(t, p.LastID)
}

func TestLoad_VersionedMissingName(t *testing.T) {
	path := writeManifest(t, `{"version":1}`)

	p, err := readers.Load[any](context.Background(), path)
	assert.Nil(t, p)
	requireFailure(t, err, manifest.KindSchema)
	assert.ErrorIs(t, err, manifest.ErrSchemaViolation)
}

func TestLoad_NonexistentLocation(t *testing.T) {
	p, err := readers.Load[any](context.Background(), filepath.Join(t.TempDir(), "missing.qpproj"))
	assert.Nil(t, p)
	requireFailure(t, err, manifest.KindNotFound)
}

func TestLoad_BareScalar(t *testing.T) {
	for _, content := range []string{`42`, `"demo"`, `true`, ``} {
		path := writeManifest(t, content)
		p, err := readers.Load[any](context.Background(), path)
		assert.Nil(t, p)
		requireFailure(t, err, manifest.KindMalformed)
		assert.ErrorIs(t, err, manifest.ErrMalformedManifest)
	}
}

func TestLoad_FileURI(t *testing.T) {
	path := writeManifest(t, `{"version":"0.2.0","name":"uri-demo"}`)

	p, err := readers.Load[any](context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "uri-demo", p.Name)
	assert.Equal(t, path, p.ManifestPath)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func TestLoad_VersionedFixture(t *testing.T) {
	p, err := readers.Load[slideData](context.Background(), filepath.Join("testdata", "versioned.qpproj"))
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, "0.2.0", p.Version)
	assert.Equal(t, time.UnixMilli(1500000000000).UTC(), p.CreatedAt)
	assert.Equal(t, time.UnixMilli(1500000360000).UTC(), p.ModifiedAt)
	assert.Equal(t, 2, p.LastID)
	require.Len(t, p.Images, 2)
	assert.Equal(t, 1, p.Images[0].ID)
	assert.Equal(t, "slide-a.svs", p.Images[0].Name)
	assert.Equal(t, "/data/slides/slide-a.svs", p.Images[0].Path)
	assert.Equal(t, map[string]string{"stain": "H&E"}, p.Images[0].Metadata)
	assert.Equal(t, slideData{Score: 0.5}, p.Images[0].Data)
	assert.Equal(t, slideData{}, p.Images[1].Data)
}

func TestLoad_LegacyMatchesVersioned(t *testing.T) {
	ctx := context.Background()
	legacy, err := readers.Load[slideData](ctx, filepath.Join("testdata", "legacy.qpproj"))
	require.NoError(t, err)
	versioned, err := readers.Load[slideData](ctx, filepath.Join("testdata", "versioned.qpproj"))
	require.NoError(t, err)

	assert.Equal(t, "legacy", legacy.Format)
	assert.Equal(t, "versioned", versioned.Format)
	assert.Equal(t, commonFields(versioned), commonFields(legacy))
}

func TestLoad_Idempotent(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"legacy.qpproj", "versioned.qpproj"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("testdata", name)
			first, err := readers.Load[slideData](ctx, path)
			require.NoError(t, err)
			second, err := readers.Load[slideData](ctx, path)
			require.NoError(t, err)
			assert.Equal(t, first, second)
			assert.NotSame(t, first, second)
		})
	}
}

// ---------------------------------------------------------------------------
// Versioned reader
// ---------------------------------------------------------------------------

func TestVersioned_Read(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		validate func(t *testing.T, p *project.Project[any])
	}{
		{
			name:    "explicit id is kept",
			content: `{"version":1,"name":"demo","id":"fixed-id"}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "fixed-id", p.ID)
			},
		},
		{
			name:    "lastID is raised to the highest entry",
			content: `{"version":1,"name":"demo","lastID":1,"images":[{"entryID":4,"serverPath":"/a.tif"}]}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, 4, p.LastID)
			},
		},
		{
			name:    "higher lastID is preserved",
			content: `{"version":1,"name":"demo","lastID":9,"images":[{"entryID":4,"serverPath":"/a.tif"}]}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, 9, p.LastID)
			},
		},
		{
			name:    "unknown fields are tolerated",
			content: `{"version":"0.3","name":"demo","uri":"file:/x","extra":{"a":1}}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "0.3", p.Version)
			},
		},
		{
			name:    "yaml layout is accepted",
			content: "version: 2\nname: yaml-demo\ndescription: from yaml\n",
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "yaml-demo", p.Name)
				assert.Equal(t, "from yaml", p.Description)
			},
		},
		{
			name:    "null version is kept as empty",
			content: `{"version":null,"name":"demo"}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "", p.Version)
			},
		},
		{
			name:    "boolean version is not re-validated",
			content: `{"version":true,"name":"demo"}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "true", p.Version)
			},
		},
		{
			name:    "structured version is not re-validated",
			content: `{"version":{"major":1},"name":"demo"}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Contains(t, p.Version, "major")
			},
		},
		{
			name:    "name is trimmed",
			content: `{"version":1,"name":"  demo  "}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "demo", p.Name)
				assert.Equal(t, project.DeriveID("demo"), p.ID)
			},
		},
		{name: "empty name", content: `{"version":1,"name":""}`, wantErr: true},
		{name: "name of wrong type", content: `{"version":1,"name":7}`, wantErr: true},
		{name: "image without serverPath", content: `{"version":1,"name":"d","images":[{"entryID":1}]}`, wantErr: true},
		{name: "image without entryID", content: `{"version":1,"name":"d","images":[{"serverPath":"/a.tif"}]}`, wantErr: true},
		{name: "duplicate entry IDs", content: `{"version":1,"name":"d","images":[{"entryID":1,"serverPath":"/a"},{"entryID":1,"serverPath":"/b"}]}`, wantErr: true},
		{name: "negative timestamp", content: `{"version":1,"name":"d","createTimestamp":-5}`, wantErr: true},
		{name: "blank name", content: `{"version":1,"name":"   "}`, wantErr: true},
	}

	reader := readers.NewVersioned[any]()
	assert.Equal(t, manifest.FormatVersioned, reader.Format())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reader.Read(context.Background(), manifest.Source{Content: []byte(tt.content)})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, manifest.ErrSchemaViolation)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

// ---------------------------------------------------------------------------
// Legacy reader
// ---------------------------------------------------------------------------

func TestLegacy_Read(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		validate func(t *testing.T, p *project.Project[any])
	}{
		{
			name:    "entries are numbered in order",
			content: `{"name":"old","images":[{"path":"/a/one.tif"},{"path":"/a/two.tif","name":"Second"}]}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				require.Len(t, p.Images, 2)
				assert.Equal(t, 1, p.Images[0].ID)
				assert.Equal(t, "one.tif", p.Images[0].Name)
				assert.Equal(t, 2, p.Images[1].ID)
				assert.Equal(t, "Second", p.Images[1].Name)
				assert.Equal(t, 2, p.LastID)
			},
		},
		{
			name:    "metadata values are stringified",
			content: `{"name":"old","images":[{"path":"/a.tif","metadata":{"magnification":40,"stained":true,"note":null}}]}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, map[string]string{"magnification": "40", "stained": "true", "note": ""}, p.Images[0].Metadata)
			},
		},
		{
			name:    "string timestamps are accepted",
			content: `{"name":"old","createTimestamp":"1500000000000"}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, time.UnixMilli(1500000000000).UTC(), p.CreatedAt)
				assert.True(t, p.ModifiedAt.IsZero())
			},
		},
		{
			name:    "name is trimmed",
			content: `{"name":"  spaced  "}`,
			validate: func(t *testing.T, p *project.Project[any]) {
				assert.Equal(t, "spaced", p.Name)
			},
		},
		{name: "missing name", content: `{"images":[]}`, wantErr: true},
		{name: "blank name", content: `{"name":"   "}`, wantErr: true},
		{name: "image without path", content: `{"name":"old","images":[{"name":"x"}]}`, wantErr: true},
		{name: "garbage timestamp", content: `{"name":"old","createTimestamp":"yesterday"}`, wantErr: true},
	}

	reader := readers.NewLegacy[any]()
	assert.Equal(t, manifest.FormatLegacy, reader.Format())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reader.Read(context.Background(), manifest.Source{Content: []byte(tt.content)})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, manifest.ErrLegacyFormatViolation)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			tt.validate(t, p)
		})
	}
}

func TestLoad_LegacyViolationSurfacesAsLoadFailure(t *testing.T) {
	path := writeManifest(t, `{"images":[{"path":"/a.tif"}]}`)
	_, err := readers.Load[any](context.Background(), path)
	requireFailure(t, err, manifest.KindLegacy)
	assert.ErrorIs(t, err, manifest.ErrLegacyFormatViolation)
}

func TestLoad_PaddedNameMatchesAcrossLayouts(t *testing.T) {
	ctx := context.Background()
	legacy, err := readers.Load[any](ctx, writeManifest(t, `{"name":"  demo  ","images":[{"path":"/a.tif","name":"a"}]}`))
	require.NoError(t, err)
	versioned, err := readers.Load[any](ctx, writeManifest(t, `{"version":1,"name":"  demo  ","lastID":1,"images":[{"entryID":1,"imageName":"a","serverPath":"/a.tif"}]}`))
	require.NoError(t, err)

	assert.Equal(t, "demo", versioned.Name)
	assert.Equal(t, commonFields(versioned), commonFields(legacy))
}

func TestLoad_BlankNameRejectedInBothLayouts(t *testing.T) {
	ctx := context.Background()
	_, err := readers.Load[any](ctx, writeManifest(t, `{"name":"   "}`))
	requireFailure(t, err, manifest.KindLegacy)
	_, err = readers.Load[any](ctx, writeManifest(t, `{"version":1,"name":"   "}`))
	requireFailure(t, err, manifest.KindSchema)
}

func TestLoad_ByteOrderMark(t *testing.T) {
	ctx := context.Background()
	p, err := readers.Load[any](ctx, writeManifest(t, "\xef\xbb\xbf"+`{"version":1,"name":"demo"}`))
	require.NoError(t, err)
	assert.Equal(t, "versioned", p.Format)
	assert.Equal(t, "demo", p.Name)

	p, err = readers.Load[any](ctx, writeManifest(t, "\xef\xbb\xbf"+`{"name":"demo"}`))
	require.NoError(t, err)
	assert.Equal(t, "legacy", p.Format)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	_, err := readers.Load[any](context.Background(), writeManifest(t, "{\"name\":\"de\xffmo\"}"))
	failure := requireFailure(t, err, manifest.KindParse)
	assert.ErrorIs(t, failure, manifest.ErrInvalidEncoding)
}

func TestReaders_InvalidUTF8(t *testing.T) {
	source := manifest.Source{Content: []byte("{\"version\":1,\"name\":\"de\xffmo\"}")}
	_, err := readers.NewVersioned[any]().Read(context.Background(), source)
	assert.ErrorIs(t, err, manifest.ErrInvalidEncoding)
	_, err = readers.NewLegacy[any]().Read(context.Background(), source)
	assert.ErrorIs(t, err, manifest.ErrInvalidEncoding)
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	loader := readers.NewDefaultLoader[slideData]()
	want, err := loader.Load(context.Background(), filepath.Join("testdata", "versioned.qpproj"))
	require.NoError(t, err)

	const workers = 16
	results := make([]*project.Project[slideData], workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "versioned.qpproj"
			if i%2 == 1 {
				name = "legacy.qpproj"
			}
			results[i], errs[i] = loader.Load(context.Background(), filepath.Join("testdata", name))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, commonFields(want), commonFields(results[i]))
	}
}
