// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/project"
)

// legacyImage is an image entry as written before the version marker.
// Metadata values were not always strings, so they are decoded loosely.
type legacyImage[T any] struct {
	Path        string         `yaml:"path"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Metadata    map[string]any `yaml:"metadata"`
	Data        T              `yaml:"data"`
}

type legacyManifest[T any] struct {
	Name            string           `yaml:"name"`
	CreateTimestamp any              `yaml:"createTimestamp"`
	ModifyTimestamp any              `yaml:"modifyTimestamp"`
	Images          []legacyImage[T] `yaml:"images"`
}

// Legacy migrates manifests written before the version marker existed onto
// the current Project shape. Fields that only exist in the current layout
// get defaults; the file itself is never rewritten.
type Legacy[T any] struct{}

// NewLegacy creates a Legacy reader.
func NewLegacy[T any]() *Legacy[T] {
	return &Legacy[T]{}
}

func (r *Legacy[T]) Format() manifest.Format {
	return manifest.FormatLegacy
}

func (r *Legacy[T]) Read(_ context.Context, source manifest.Source) (*project.Project[T], error) {
	content, err := manifest.Normalize(source.Content)
	if err != nil {
		return nil, err
	}

	var doc legacyManifest[T]
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse legacy manifest: %w", err)
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", manifest.ErrLegacyFormatViolation)
	}

	created, err := legacyTimestamp(doc.CreateTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: createTimestamp: %v", manifest.ErrLegacyFormatViolation, err)
	}
	modified, err := legacyTimestamp(doc.ModifyTimestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: modifyTimestamp: %v", manifest.ErrLegacyFormatViolation, err)
	}

	p := &project.Project[T]{
		ID:         project.DeriveID(name),
		Name:       name,
		CreatedAt:  project.Timestamp(created),
		ModifiedAt: project.Timestamp(modified),
		Images:     make([]project.ImageEntry[T], 0, len(doc.Images)),
	}

	// Legacy entries had no IDs; number them in file order.
	for i, img := range doc.Images {
		if img.Path == "" {
			return nil, fmt.Errorf("%w: images[%d].path", manifest.ErrLegacyFormatViolation, i)
		}
		imageName := img.Name
		if imageName == "" {
			imageName = path.Base(img.Path)
		}
		p.Images = append(p.Images, project.ImageEntry[T]{
			ID:          i + 1,
			Name:        imageName,
			Path:        img.Path,
			Description: img.Description,
			Metadata:    stringifyMetadata(img.Metadata),
			Data:        img.Data,
		})
	}
	p.LastID = len(p.Images)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", manifest.ErrLegacyFormatViolation, err)
	}
	return p, nil
}

// legacyTimestamp accepts epoch milliseconds written as a number or a
// numeric string. Absent values are zero.
func legacyTimestamp(v any) (int64, error) {
	switch ts := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(ts), nil
	case int64:
		return ts, nil
	case uint64:
		return int64(ts), nil
	case float64:
		return int64(ts), nil
	case string:
		if ts == "" {
			return 0, nil
		}
		return strconv.ParseInt(ts, 10, 64)
	}
	return 0, fmt.Errorf("unsupported timestamp type %T", v)
}

func stringifyMetadata(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
