// Package storage uploads vehicle photographs to a blob store and hands back
// a public URL for them.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore is where car pictures end up.
type BlobStore interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	PublicURL(name string) string
}

// ObjectName builds a collision-resistant blob name:
// <owner>_<unix millis>_<8 random chars><ext of the original filename>.
func ObjectName(owner, filename string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s_%d_%s%s", owner, now.UnixMilli(), suffix, ext)
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
