// SPDX-License-Identifier: Apache-2.0

package project

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default naming conventions for project manifests. The loader does not
// enforce them; callers use them to build location references.
const (
	DefaultProjectName      = "project"
	DefaultProjectExtension = "qpproj"
)

var (
	ErrEmptyProjectName = errors.New("project name cannot be empty")
	ErrEmptyImagePath   = errors.New("image path cannot be empty")
	ErrDuplicateImageID = errors.New("duplicate image entry ID")
)

// idNamespace seeds name-derived project IDs.
var idNamespace = uuid.MustParse("5b0c1f9e-3c4d-4a6e-9f59-7d0d0c6b8a21")

// Project is the normalized in-memory form of a project manifest,
// whichever on-disk layout it was read from. T is the application-defined
// payload carried by each image entry.
type Project[T any] struct {
	// ID is stable across loads of the same manifest.
	ID string `json:"id"`

	Name string `json:"name"`

	// Version is the manifest version marker rendered as a string. Empty for
	// manifests migrated from the legacy layout.
	Version string `json:"version,omitempty"`

	// Format names the on-disk layout the project was read from.
	Format string `json:"format"`

	Description string `json:"description,omitempty"`

	// Dir is the absolute directory holding the manifest.
	Dir string `json:"dir"`

	// ManifestPath is the absolute path of the manifest file.
	ManifestPath string `json:"manifest_path"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// LastID is the highest image entry ID handed out so far.
	LastID int `json:"last_id"`

	Images []ImageEntry[T] `json:"images"`
}

// ImageEntry is one image registered in a project.
type ImageEntry[T any] struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Path        string            `json:"path"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Data        T                 `json:"data"`
}

// ProjectExtension returns the default manifest extension, optionally with
// the leading period.
func ProjectExtension(includePeriod bool) string {
	if includePeriod {
		return "." + DefaultProjectExtension
	}
	return DefaultProjectExtension
}

// DefaultManifestName returns the file name callers use for a new project.
func DefaultManifestName() string {
	return DefaultProjectName + ProjectExtension(true)
}

// DeriveID returns the name-derived ID used when a manifest carries none.
func DeriveID(name string) string {
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// Timestamp converts an epoch-millisecond manifest timestamp. Zero stays the
// zero time so absent fields remain distinguishable.
func Timestamp(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

// Validate checks the invariants every loaded project must satisfy.
func (p *Project[T]) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyProjectName
	}
	seen := make(map[int]struct{}, len(p.Images))
	for _, img := range p.Images {
		if img.Path == "" {
			return ErrEmptyImagePath
		}
		if _, dup := seen[img.ID]; dup {
			return ErrDuplicateImageID
		}
		seen[img.ID] = struct{}{}
	}
	return nil
}

// MaxImageID returns the highest image entry ID, or 0 for no images.
func (p *Project[T]) MaxImageID() int {
	highest := 0
	for _, img := range p.Images {
		if img.ID > highest {
			highest = img.ID
		}
	}
	return highest
}
