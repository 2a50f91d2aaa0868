package reliability

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	uploadPrefix          = "returns-"
	uploadSuffix          = ".db"
	uploadTimestampLayout = "2006-01-02-150405"

	// MinUploadsToKeep survive rotation regardless of age
	MinUploadsToKeep = 3
)

// UploadInfo describes an uploaded result database
type UploadInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"`
	AgeHours  int64     `json:"age_hours"`
}

// OutputUploader copies the result database to object storage after a run
type OutputUploader struct {
	store  ObjectStore
	prefix string
	log    zerolog.Logger
	now    func() time.Time
}

// NewOutputUploader creates an uploader writing keys under prefix
func NewOutputUploader(store ObjectStore, prefix string, log zerolog.Logger) *OutputUploader {
	return &OutputUploader{
		store:  store,
		prefix: prefix,
		log:    log.With().Str("service", "output_upload").Logger(),
		now:    time.Now,
	}
}

// Key returns the object key for an upload made at ts
func (u *OutputUploader) Key(ts time.Time) string {
	return u.prefix + uploadPrefix + ts.UTC().Format(uploadTimestampLayout) + uploadSuffix
}

// Upload sends the database file at path with its sha256 checksum as metadata
func (u *OutputUploader) Upload(ctx context.Context, path string) (*UploadInfo, error) {
	startTime := u.now()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	checksum, err := calculateChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for %s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	key := u.Key(startTime)
	metadata := map[string]string{
		"sha256": checksum,
		"source": filepath.Base(path),
	}
	if err := u.store.Upload(ctx, key, file, metadata); err != nil {
		return nil, fmt.Errorf("failed to upload output database: %w", err)
	}

	u.log.Info().
		Dur("duration_ms", u.now().Sub(startTime)).
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Msg("Output database uploaded")

	return &UploadInfo{
		Key:       key,
		Timestamp: startTime.UTC().Truncate(time.Second),
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}, nil
}

// ListUploads lists uploaded result databases, newest first
func (u *OutputUploader) ListUploads(ctx context.Context) ([]UploadInfo, error) {
	objects, err := u.store.List(ctx, u.prefix+uploadPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	now := u.now()
	uploads := make([]UploadInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, u.prefix)
		if !strings.HasPrefix(name, uploadPrefix) || !strings.HasSuffix(name, uploadSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, uploadPrefix), uploadSuffix)
		timestamp, err := time.Parse(uploadTimestampLayout, stamp)
		if err != nil {
			u.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from key")
			continue
		}

		uploads = append(uploads, UploadInfo{
			Key:       obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].Timestamp.After(uploads[j].Timestamp)
	})

	return uploads, nil
}

// RotateOldUploads deletes uploads older than retentionDays and returns how many
// were removed. The newest MinUploadsToKeep are always kept; 0 keeps everything.
func (u *OutputUploader) RotateOldUploads(ctx context.Context, retentionDays int) (int, error) {
	u.log.Info().Int("retention_days", retentionDays).Msg("Starting upload rotation")

	uploads, err := u.ListUploads(ctx)
	if err != nil {
		return 0, err
	}

	if retentionDays <= 0 || len(uploads) <= MinUploadsToKeep {
		u.log.Info().Int("count", len(uploads)).Msg("Nothing to rotate")
		return 0, nil
	}

	cutoff := u.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, upload := range uploads[MinUploadsToKeep:] {
		if !upload.Timestamp.Before(cutoff) {
			continue
		}
		if err := u.store.Delete(ctx, upload.Key); err != nil {
			u.log.Error().
				Err(err).
				Str("key", upload.Key).
				Msg("Failed to delete old upload")
			continue
		}
		u.log.Info().
			Str("key", upload.Key).
			Time("timestamp", upload.Timestamp).
			Msg("Deleted old upload")
		deleted++
	}

	u.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(uploads)-deleted).
		Msg("Upload rotation completed")

	return deleted, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
