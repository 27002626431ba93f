package storage

import (
	"context"
	"fmt"
	"strings"

	"logbook/internal/config"
)

const (
	// TypeLocal stores files on the local filesystem.
	TypeLocal = "local"
	// TypeS3 stores files in Amazon S3 or an S3-compatible backend.
	TypeS3 = "s3"
	// TypeOSS stores files in Aliyun OSS.
	TypeOSS = "oss"
	// TypeCOS stores files in Tencent COS.
	TypeCOS = "cos"
	// TypeR2 stores files in Cloudflare R2.
	TypeR2 = "r2"
)

// SaveOptions controls how a backend persists a file.
//
// Category organises files on disk; Extension hints the preferred file
// extension without the leading dot. Backends guess one when it is empty.
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage persists binary data and returns a backend-specific identifier,
// such as a relative path for local storage.
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// Remover is implemented by backends that can delete a stored object.
type Remover interface {
	Remove(ctx context.Context, path string) error
}

// LocalBaseDirProvider is implemented by backends whose files can be served
// directly over HTTP from a local directory.
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage instantiates the backend selected by configuration.
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}
