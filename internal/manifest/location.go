// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ResolveLocation maps a path or file:// URI onto an absolute local path.
func ResolveLocation(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}

	path := ref
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedLocation, err)
		}
		if !strings.EqualFold(u.Scheme, "file") {
			return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedLocation, u.Scheme)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote host %q", ErrUnsupportedLocation, u.Host)
		}
		path = filepath.FromSlash(u.Path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", ref, err)
	}
	return abs, nil
}
