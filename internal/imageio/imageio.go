// Package imageio implements the image-creation/restore side of the
// Destructive-op Protocol: a streaming copy through an optional compressor,
// SHA-256 verification of the plaintext, and a JSON sidecar describing the
// result.
package imageio

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"diskforge/internal/job"
	"diskforge/internal/model"
)

const defaultBlockSize = 64 * 1024 * 1024

// sidecarPath is where CreateImage/RestoreImage/GetImageInfo store the
// serialized ImageInfo alongside the image file itself.
func sidecarPath(imagePath string) string {
	return imagePath + ".meta.json"
}

// Create streams sourcePath through an optional compressor into a new file
// at opts.OutputPath (gaining a compression-specific suffix), hashing the
// plaintext as it goes, and writes a sidecar ImageInfo. jc may be nil for a
// synchronous, non-progress-reporting call (e.g. from a test).
func Create(jc *job.JobContext, opts model.ImageOptions, dryRun bool) (*model.ImageInfo, bool, string) {
	if dryRun {
		return nil, true, fmt.Sprintf("would create a %s image of %s at %s", opts.Compression, opts.SourcePath, opts.OutputPath)
	}

	src, err := os.Open(opts.SourcePath)
	if err != nil {
		return nil, false, err.Error()
	}
	defer src.Close()

	sourceSize, err := sourceSizeBytes(src)
	if err != nil {
		return nil, false, err.Error()
	}

	outputPath := opts.OutputPath + opts.Compression.Suffix()
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, false, err.Error()
	}
	defer out.Close()

	sink, closeSink, err := wrapCompressor(out, opts.Compression)
	if err != nil {
		return nil, false, err.Error()
	}

	checksum, bytesWritten, err := stream(jc, src, sink, opts.BlockSize, sourceSize)
	closeErr := closeSink()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if errors.Is(err, job.ErrCancelled) {
			return nil, false, "image creation cancelled"
		}
		return nil, false, err.Error()
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, false, err.Error()
	}

	imageInfo := model.NewImageInfo(outputPath, opts.SourcePath, sourceSize)
	imageInfo.ImageSizeBytes = uint64(info.Size())
	imageInfo.Compression = opts.Compression
	imageInfo.Checksum = checksum
	imageInfo.CreatedAt = time.Now()
	_ = bytesWritten

	if err := writeSidecar(imageInfo); err != nil {
		return imageInfo, false, err.Error()
	}
	return imageInfo, true, fmt.Sprintf("created image %s (%d bytes)", outputPath, imageInfo.ImageSizeBytes)
}

// Restore streams opts.ImagePath through the matching decompressor onto
// opts.TargetPath, optionally verifying the plaintext checksum against the
// sidecar's recorded value.
func Restore(jc *job.JobContext, opts model.RestoreOptions, dryRun bool) (bool, string) {
	if dryRun {
		return true, fmt.Sprintf("would restore %s to %s", opts.ImagePath, opts.TargetPath)
	}

	info, err := readSidecarOrInfer(opts.ImagePath)
	if err != nil {
		return false, err.Error()
	}

	in, err := os.Open(opts.ImagePath)
	if err != nil {
		return false, err.Error()
	}
	defer in.Close()

	source, closeSource, err := wrapDecompressor(in, info.Compression)
	if err != nil {
		return false, err.Error()
	}
	defer closeSource()

	target, err := os.OpenFile(opts.TargetPath, os.O_WRONLY, 0)
	if err != nil {
		return false, err.Error()
	}
	defer target.Close()

	checksum, _, err := stream(jc, source, target, 0, info.SourceSizeBytes)
	if err != nil {
		if errors.Is(err, job.ErrCancelled) {
			return false, "restore cancelled"
		}
		return false, err.Error()
	}
	if err := target.Sync(); err != nil {
		return false, err.Error()
	}

	if opts.Verify && info.Checksum != "" && checksum != info.Checksum {
		return false, "Checksum verification failed"
	}
	return true, fmt.Sprintf("restored %s to %s", opts.ImagePath, opts.TargetPath)
}

// GetInfo reads the sidecar for path, or infers a minimal ImageInfo from the
// file itself (compression guessed from its suffix) if no sidecar exists.
func GetInfo(path string) (*model.ImageInfo, error) {
	return readSidecarOrInfer(path)
}

// SourceSizeFromSidecar returns the original source size recorded in an
// image's sidecar, so a caller can preflight a restore's target-size check
// before opening anything.
func SourceSizeFromSidecar(imagePath string) (uint64, error) {
	info, err := readSidecarOrInfer(imagePath)
	if err != nil {
		return 0, err
	}
	return info.SourceSizeBytes, nil
}

func sourceSizeBytes(f *os.File) (uint64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.Mode()&os.ModeDevice != 0 {
		// Block devices report a 0 regular-file size from Stat; seeking to
		// the end gives the device's size, then the offset is rewound.
		end, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return uint64(end), nil
	}
	return uint64(info.Size()), nil
}

// stream is the shared streaming-copy core: check-cancelled / wait-if-paused
// each iteration, read a block, hash the plaintext, write it downstream,
// report progress.
func stream(jc *job.JobContext, src io.Reader, dst io.Writer, blockSize int, totalBytes uint64) (checksum string, bytesDone uint64, err error) {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	hasher := sha256.New()
	buf := make([]byte, blockSize)
	start := time.Now()

	for {
		if jc != nil {
			if err := jc.CheckCancelled(); err != nil {
				return "", bytesDone, err
			}
			if err := jc.WaitIfPaused(0); err != nil {
				return "", bytesDone, err
			}
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return "", bytesDone, writeErr
			}
			bytesDone += uint64(n)
			if jc != nil {
				elapsed := time.Since(start).Seconds()
				rate := 0.0
				if elapsed > 0 {
					rate = float64(bytesDone) / elapsed
				}
				jc.UpdateProgress(job.ProgressUpdate{
					BytesProcessed:  &bytesDone,
					BytesTotal:      &totalBytes,
					RateBytesPerSec: &rate,
				})
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return "", bytesDone, readErr
		}
		if n == 0 {
			break
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), bytesDone, nil
}

func wrapCompressor(w io.Writer, c model.Compression) (io.Writer, func() error, error) {
	switch c {
	case model.CompressionNone:
		return w, func() error { return nil }, nil
	case model.CompressionGzip:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case model.CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	case model.CompressionLZ4:
		lzw := lz4.NewWriter(w)
		return lzw, lzw.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

func wrapDecompressor(r io.Reader, c model.Compression) (io.Reader, func() error, error) {
	switch c {
	case model.CompressionNone:
		return r, func() error { return nil }, nil
	case model.CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, gr.Close, nil
	case model.CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case model.CompressionLZ4:
		lzr := lz4.NewReader(r)
		return lzr, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

func writeSidecar(info *model.ImageInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarPath(info.Path), data, 0o644)
}

func readSidecarOrInfer(imagePath string) (*model.ImageInfo, error) {
	data, err := os.ReadFile(sidecarPath(imagePath))
	if err == nil {
		var info model.ImageInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("parsing sidecar for %s: %w", imagePath, err)
		}
		return &info, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	info := model.NewImageInfo(imagePath, "", 0)
	info.Compression = inferCompressionFromSuffix(imagePath)
	return info, nil
}

func inferCompressionFromSuffix(path string) model.Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return model.CompressionGzip
	case strings.HasSuffix(path, ".zst"):
		return model.CompressionZstd
	case strings.HasSuffix(path, ".lz4"):
		return model.CompressionLZ4
	default:
		return model.CompressionNone
	}
}
