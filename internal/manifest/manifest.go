// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"errors"

	"github.com/qpproj/projectio/internal/project"
)

// VersionKey is the top-level key whose presence marks the current layout.
const VersionKey = "version"

// Format is the on-disk layout of a manifest.
type Format int

const (
	// FormatLegacy is the layout that predates the version marker.
	FormatLegacy Format = iota + 1
	// FormatVersioned is the current, self-describing layout.
	FormatVersioned
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatVersioned:
		return "versioned"
	}
	return "unknown"
}

var (
	ErrMalformedManifest      = errors.New("malformed manifest: top-level payload is not an object")
	ErrSchemaViolation        = errors.New("manifest violates current schema")
	ErrLegacyFormatViolation  = errors.New("legacy manifest is missing mandatory fields")
	ErrUnsupportedLocation    = errors.New("location does not resolve to a local file")
	ErrManifestTooLarge       = errors.New("manifest exceeds size limit")
	ErrUnexpectedReaderResult = errors.New("reader returned no project and no error")
	ErrInvalidEncoding        = errors.New("manifest is not valid UTF-8")
)

// Source is a manifest that has already been read into memory.
type Source struct {
	// Location is the reference the caller passed to Load.
	Location string
	// Path is the absolute local path Location resolved to.
	Path string
	// Content holds the raw manifest bytes.
	Content []byte
}

// Reader turns one manifest layout into a Project.
type Reader[T any] interface {
	Format() Format
	Read(ctx context.Context, source Source) (*project.Project[T], error)
}
