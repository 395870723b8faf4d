// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/qpproj/projectio/internal/project"
)

// DefaultMaxManifestBytes bounds how much of a manifest file is read.
const DefaultMaxManifestBytes int64 = 10 * 1024 * 1024

// FailureKind classifies why a load failed.
type FailureKind string

const (
	KindUnsupportedLocation FailureKind = "unsupported_location"
	KindNotFound            FailureKind = "not_found"
	KindIO                  FailureKind = "io"
	KindParse               FailureKind = "parse"
	KindMalformed           FailureKind = "malformed"
	KindSchema              FailureKind = "schema_violation"
	KindLegacy              FailureKind = "legacy_format_violation"
	KindCanceled            FailureKind = "canceled"
)

// LoadFailure is the single error type Load returns.
type LoadFailure struct {
	Location string
	Kind     FailureKind
	Err      error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("failed to load project %q (%s): %v", e.Location, e.Kind, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// Loader resolves a location, sniffs the manifest layout and dispatches to
// the matching reader.
type Loader[T any] struct {
	versioned Reader[T]
	legacy    Reader[T]
	logger    *zap.Logger
	maxBytes  int64
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	maxBytes int64
}

// WithLogger sets the logger used to report failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxManifestBytes caps the manifest size. Values <= 0 keep the default.
func WithMaxManifestBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// NewLoader creates a Loader from a reader for each layout.
func NewLoader[T any](versioned, legacy Reader[T], opts ...Option) *Loader[T] {
	o := options{logger: zap.NewNop(), maxBytes: DefaultMaxManifestBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[T]{
		versioned: versioned,
		legacy:    legacy,
		logger:    o.logger,
		maxBytes:  o.maxBytes,
	}
}

// Load reads the manifest at ref and returns the normalized project. Every
// failure is returned as a *LoadFailure.
func (l *Loader[T]) Load(ctx context.Context, ref string) (*project.Project[T], error) {
	p, err := l.load(ctx, ref)
	if err != nil {
		var failure *LoadFailure
		if !errors.As(err, &failure) {
			failure = &LoadFailure{Location: ref, Kind: KindParse, Err: err}
		}
		l.logger.Error("error loading project",
			zap.String("location", ref),
			zap.String("kind", string(failure.Kind)),
			zap.Error(failure.Err),
		)
		return nil, failure
	}

	l.logger.Debug("loaded project",
		zap.String("location", ref),
		zap.String("format", p.Format),
		zap.String("name", p.Name),
		zap.Int("images", len(p.Images)),
	)
	return p, nil
}

func (l *Loader[T]) load(ctx context.Context, ref string) (p *project.Project[T], err error) {
	fail := func(kind FailureKind, cause error) error {
		return &LoadFailure{Location: ref, Kind: kind, Err: cause}
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}

	path, err := ResolveLocation(ref)
	if err != nil {
		return nil, fail(KindUnsupportedLocation, err)
	}

	content, err := ReadFile(path, l.maxBytes)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fail(KindNotFound, err)
		}
		return nil, fail(KindIO, err)
	}

	payload, err := Decode(content)
	if err != nil {
		return nil, fail(KindParse, err)
	}

	format, err := Classify(payload)
	if err != nil {
		return nil, fail(KindMalformed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(KindCanceled, err)
	}

	var reader Reader[T]
	switch format {
	case FormatLegacy:
		reader = l.legacy
	case FormatVersioned:
		reader = l.versioned
	}
	if reader == nil {
		return nil, fail(KindParse, fmt.Errorf("no reader registered for %s manifests", format))
	}

	source := Source{Location: ref, Path: path, Content: content}

	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fail(KindParse, fmt.Errorf("%s reader panicked: %v", format, r))
		}
	}()

	p, err = reader.Read(ctx, source)
	if err != nil {
		return nil, fail(readerFailureKind(err), fmt.Errorf("%s reader failed: %w", format, err))
	}
	if p == nil {
		return nil, fail(KindParse, ErrUnexpectedReaderResult)
	}

	p.Format = format.String()
	p.ManifestPath = path
	p.Dir = filepath.Dir(path)
	return p, nil
}

// ReadFile reads the whole manifest at path, refusing directories and
// anything larger than maxBytes. The handle is released before any parsing
// happens.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("manifest location %s is a directory", path)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrManifestTooLarge, info.Size(), maxBytes)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("%w: limit %d", ErrManifestTooLarge, maxBytes)
	}
	return content, nil
}

func readerFailureKind(err error) FailureKind {
	switch {
	case errors.Is(err, ErrSchemaViolation):
		return KindSchema
	case errors.Is(err, ErrLegacyFormatViolation):
		return KindLegacy
	case errors.Is(err, ErrMalformedManifest):
		return KindMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindParse
}
