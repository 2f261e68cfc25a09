package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"diskforge/internal/model"
)

func TestImageRepoSaveGetDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepo(db)

	info := model.NewImageInfo("/backups/sdb.img.zst", "/dev/sdb", 1<<30)
	info.Compression = model.CompressionZstd
	info.ImageSizeBytes = 1 << 20
	info.Checksum = "deadbeef"
	info.CreatedAt = time.Now()
	require.NoError(t, repo.Save(info))

	got, err := repo.Get(info.Path)
	require.NoError(t, err)
	require.Equal(t, "/dev/sdb", got.SourceDevice)
	require.Equal(t, model.CompressionZstd, got.Compression)
	require.Equal(t, "deadbeef", got.Checksum)

	require.NoError(t, repo.Delete(info.Path))
	_, err = repo.Get(info.Path)
	require.Error(t, err)
}

func TestImageRepoSaveUpserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepo(db)

	info := model.NewImageInfo("/backups/sdb.img", "/dev/sdb", 1<<30)
	info.CreatedAt = time.Now()
	require.NoError(t, repo.Save(info))

	info.Checksum = "updated-checksum"
	require.NoError(t, repo.Save(info))

	got, err := repo.Get(info.Path)
	require.NoError(t, err)
	require.Equal(t, "updated-checksum", got.Checksum)
}

func TestImageRepoListOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepo(db)

	base := time.Now().Add(-time.Hour)
	for i, p := range []string{"/a.img", "/b.img"} {
		info := model.NewImageInfo(p, "/dev/sdb", 100)
		info.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(info))
	}

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "/b.img", list[0].Path)
}
