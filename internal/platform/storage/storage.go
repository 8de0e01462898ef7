package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/benetrust/trustadmin-backend/internal/platform/envutil"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
)

// FileStore is the object-storage collaborator. Keys are opaque slash-joined
// paths owned by the caller.
type FileStore interface {
	Store(ctx context.Context, key string, file io.Reader) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// NewFromEnv picks the backend from FILE_STORE_MODE: "gcs" or "local"
// (default local, rooted at FILE_STORE_DIR).
func NewFromEnv(log *logger.Logger) (FileStore, error) {
	mode := strings.ToLower(envutil.String("FILE_STORE_MODE", "local"))
	switch mode {
	case "gcs":
		return NewGCSStore(log)
	case "local":
		return NewLocalStore(envutil.String("FILE_STORE_DIR", "./filestore"), log)
	default:
		return nil, fmt.Errorf("unknown FILE_STORE_MODE %q", mode)
	}
}
