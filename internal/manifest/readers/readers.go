// SPDX-License-Identifier: Apache-2.0

// Package readers holds the per-layout manifest readers and wires them into
// a ready-to-use manifest.Loader.
package readers

import (
	"context"

	"github.com/qpproj/projectio/internal/manifest"
	"github.com/qpproj/projectio/internal/project"
)

// NewDefaultLoader builds a Loader with the versioned and legacy readers
// registered.
func NewDefaultLoader[T any](opts ...manifest.Option) *manifest.Loader[T] {
	return manifest.NewLoader[T](NewVersioned[T](), NewLegacy[T](), opts...)
}

// Load reads the project at ref with the default readers. T is the payload
// type attached to each image entry.
func Load[T any](ctx context.Context, ref string, opts ...manifest.Option) (*project.Project[T], error) {
	return NewDefaultLoader[T](opts...).Load(ctx, ref)
}
