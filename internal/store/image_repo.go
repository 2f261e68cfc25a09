package store

import (
	"encoding/json"

	"diskforge/internal/model"
)

// ImageRepo persists the image registry: one row per ImageInfo passed to
// Save, keyed by image path and mirroring the sidecar .meta.json. The image
// pipeline (imageio.Create) writes only the sidecar, not this registry.
type ImageRepo struct {
	db *DB
}

// NewImageRepo creates a new image-registry repository.
func NewImageRepo(db *DB) *ImageRepo {
	return &ImageRepo{db: db}
}

// Save inserts or replaces the registry row for info.Path.
func (r *ImageRepo) Save(info *model.ImageInfo) error {
	metaJSON, err := json.Marshal(info.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.conn.Exec(`
		INSERT INTO image_registry (path, source_device, source_size_bytes, image_size_bytes,
			compression, created_at, checksum, checksum_algorithm, format_version, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source_device = excluded.source_device,
			source_size_bytes = excluded.source_size_bytes,
			image_size_bytes = excluded.image_size_bytes,
			compression = excluded.compression,
			created_at = excluded.created_at,
			checksum = excluded.checksum,
			checksum_algorithm = excluded.checksum_algorithm,
			format_version = excluded.format_version,
			metadata = excluded.metadata
	`, info.Path, info.SourceDevice, info.SourceSizeBytes, info.ImageSizeBytes,
		string(info.Compression), info.CreatedAt, info.Checksum, info.ChecksumAlgorithm,
		info.FormatVersion, string(metaJSON))
	return err
}

// Get retrieves the registry row for an image path.
func (r *ImageRepo) Get(path string) (*model.ImageInfo, error) {
	row := r.db.conn.QueryRow(`
		SELECT path, source_device, source_size_bytes, image_size_bytes, compression,
			created_at, checksum, checksum_algorithm, format_version, metadata
		FROM image_registry WHERE path = ?
	`, path)
	return scanImageInfo(row)
}

// List returns every registered image, newest-first.
func (r *ImageRepo) List() ([]*model.ImageInfo, error) {
	rows, err := r.db.conn.Query(`
		SELECT path, source_device, source_size_bytes, image_size_bytes, compression,
			created_at, checksum, checksum_algorithm, format_version, metadata
		FROM image_registry
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ImageInfo
	for rows.Next() {
		info, err := scanImageInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes an image's registry row (the file itself is the caller's
// responsibility).
func (r *ImageRepo) Delete(path string) error {
	_, err := r.db.conn.Exec(`DELETE FROM image_registry WHERE path = ?`, path)
	return err
}

func scanImageInfo(s rowScanner) (*model.ImageInfo, error) {
	var info model.ImageInfo
	var compression, metaJSON string
	if err := s.Scan(
		&info.Path, &info.SourceDevice, &info.SourceSizeBytes, &info.ImageSizeBytes,
		&compression, &info.CreatedAt, &info.Checksum, &info.ChecksumAlgorithm,
		&info.FormatVersion, &metaJSON,
	); err != nil {
		return nil, err
	}
	info.Compression = model.Compression(compression)
	if metaJSON != "" && metaJSON != "null" {
		json.Unmarshal([]byte(metaJSON), &info.Metadata)
	}
	return &info, nil
}
