package storage

import (
	"context"
	"testing"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDiskLifecycle(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "reports/daily.txt", []byte("Total Sales: $40.00")))
	assert.True(t, d.Exists(ctx, "reports/daily.txt"))

	got, err := d.Get(ctx, "reports/daily.txt")
	require.NoError(t, err)
	assert.Equal(t, "Total Sales: $40.00", string(got))
	assert.Equal(t, "http://localhost:8080/storage/reports/daily.txt", d.URL("reports/daily.txt"))

	require.NoError(t, d.Delete(ctx, "reports/daily.txt"))
	assert.False(t, d.Exists(ctx, "reports/daily.txt"))
	assert.NoError(t, d.Delete(ctx, "reports/daily.txt"))
}

func TestLocalDiskRejectsEscape(t *testing.T) {
	d, err := NewLocalDisk(t.TempDir(), "")
	require.NoError(t, err)
	assert.Error(t, d.Put(context.Background(), "../outside.txt", []byte("x")))
}

func TestFromConfig(t *testing.T) {
	t.Cleanup(config.Reset)

	config.Set("STORAGE_DISK", "local")
	config.Set("STORAGE_LOCAL_ROOT", t.TempDir())
	d, err := FromConfig(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &LocalDisk{}, d)

	config.Set("STORAGE_DISK", "s3")
	config.Set("S3_BUCKET", "")
	_, err = FromConfig(context.Background())
	assert.ErrorContains(t, err, "S3_BUCKET")

	config.Set("STORAGE_DISK", "ftp")
	_, err = FromConfig(context.Background())
	assert.ErrorContains(t, err, "unknown disk")
}
