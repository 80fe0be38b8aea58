package s3

import (
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

// UploadConfig tunes how snapshots are written. Envelopes below PartSize
// go up in a single PutObject; larger ones use a multipart upload.
type UploadConfig struct {
	PartSize    int64 // bytes per part, at least manager.MinUploadPartSize
	Concurrency int   // parts in flight per upload

	// EnableChecksum asks S3 to verify a CRC32C of each part.
	EnableChecksum bool
	// LeavePartsOnError skips aborting a failed multipart upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig suits model snapshots of a few to a few hundred MiB.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       16 << 20,
		Concurrency:    4,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = max(cfg.PartSize, manager.MinUploadPartSize)
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}
