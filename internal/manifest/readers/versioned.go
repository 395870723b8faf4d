// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/project"
)

type versionedImage[T any] struct {
	EntryID     int               `yaml:"entryID"`
	ImageName   string            `yaml:"imageName"`
	ServerPath  string            `yaml:"serverPath"`
	Description string            `yaml:"description"`
	Metadata    map[string]string `yaml:"metadata"`
	Data        T                 `yaml:"data"`
}

type versionedManifest[T any] struct {
	Version         any                 `yaml:"version"`
	ID              string              `yaml:"id"`
	Name            string              `yaml:"name"`
	Description     string              `yaml:"description"`
	CreateTimestamp int64               `yaml:"createTimestamp"`
	ModifyTimestamp int64               `yaml:"modifyTimestamp"`
	LastID          int                 `yaml:"lastID"`
	Images          []versionedImage[T] `yaml:"images"`
}

// Versioned reads manifests in the current layout. The version marker is
// assumed present and its value is kept as-is; every other required field
// is checked against the embedded schema.
type Versioned[T any] struct{}

// NewVersioned creates a Versioned reader.
func NewVersioned[T any]() *Versioned[T] {
	return &Versioned[T]{}
}

func (r *Versioned[T]) Format() manifest.Format {
	return manifest.FormatVersioned
}

func (r *Versioned[T]) Read(_ context.Context, source manifest.Source) (*project.Project[T], error) {
	content, err := manifest.Normalize(source.Content)
	if err != nil {
		return nil, err
	}
	payload, err := manifest.Decode(content)
	if err != nil {
		return nil, err
	}

	schema, err := defaultSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(payload); err != nil {
		return nil, err
	}

	var doc versionedManifest[T]
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrSchemaViolation, err)
	}

	p := &project.Project[T]{
		ID:          doc.ID,
		Name:        strings.TrimSpace(doc.Name),
		Version:     versionString(doc.Version),
		Description: doc.Description,
		CreatedAt:   project.Timestamp(doc.CreateTimestamp),
		ModifiedAt:  project.Timestamp(doc.ModifyTimestamp),
		LastID:      doc.LastID,
		Images:      make([]project.ImageEntry[T], 0, len(doc.Images)),
	}
	if p.ID == "" {
		p.ID = project.DeriveID(p.Name)
	}

	for _, img := range doc.Images {
		p.Images = append(p.Images, project.ImageEntry[T]{
			ID:          img.EntryID,
			Name:        img.ImageName,
			Path:        img.ServerPath,
			Description: img.Description,
			Metadata:    img.Metadata,
			Data:        img.Data,
		})
	}
	if highest := p.MaxImageID(); p.LastID < highest {
		p.LastID = highest
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrSchemaViolation, err)
	}
	return p, nil
}

// versionString renders the marker value. Scalars print as themselves,
// null as "", and structured values as flow JSON.
func versionString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, map[any]any, []any:
		out, err := yaml.MarshalWithOptions(v, yaml.JSON())
		if err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSpace(string(out))
	}
	return fmt.Sprint(v)
}
