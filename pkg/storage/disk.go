// Package storage provides a small filesystem abstraction with a local
// driver and an S3-compatible driver (AWS S3, MinIO, R2, Spaces).
//
//	disk, err := storage.FromConfig(ctx)
//	err = disk.Put(ctx, "reports/daily-sales-2026-03-04.html", body)
package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/shopfront/config"
)

// Disk is the filesystem driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error
	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)
	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool
	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for path.
	URL(path string) string
}

// FromConfig returns the disk named by STORAGE_DISK.
func FromConfig(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			URL:      config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}
