// Package storage persists file payloads relayed over chat connections and
// hands back a durable URL to reference them by.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// BlobStore stores an opaque file payload and returns the URL the payload
// can later be fetched from.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// objectName builds a collision-free object name that still ends with the
// user-visible file name.
func objectName(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%s_%s", ulid.Make().String(), base)
}
