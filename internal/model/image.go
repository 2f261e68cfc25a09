package model

import "time"

// ImageInfo is the sidecar record describing a backup image: how it was
// made, what it came from, and how to verify it on restore.
type ImageInfo struct {
	Path              string         `json:"path"`
	SourceDevice      string         `json:"source_device"`
	SourceSizeBytes   uint64         `json:"source_size_bytes"`
	ImageSizeBytes    uint64         `json:"image_size_bytes"`
	Compression       Compression    `json:"compression"`
	CreatedAt         time.Time      `json:"created_at"`
	Checksum          string         `json:"checksum"`
	ChecksumAlgorithm string         `json:"checksum_algorithm"`
	FormatVersion     string         `json:"format_version"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// NewImageInfo returns an ImageInfo with its defaulted fields set
// (checksum_algorithm=sha256, format_version=1), matching the sidecar schema.
func NewImageInfo(path, sourceDevice string, sourceSize uint64) *ImageInfo {
	return &ImageInfo{
		Path:              path,
		SourceDevice:      sourceDevice,
		SourceSizeBytes:   sourceSize,
		ChecksumAlgorithm: "sha256",
		FormatVersion:     "1",
		Metadata:          map[string]any{},
	}
}
