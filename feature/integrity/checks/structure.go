package checks

import (
	"bytes"
	"context"
	"strings"

	"guide-builder/core/errors"
	"guide-builder/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// RequiredFolders lists the folders that must exist in the bucket.
var RequiredFolders = []string{"artwork", "logos"}

// CheckStructure returns the required folders missing from the bucket.
func CheckStructure(ctx context.Context, client storage.Client, bucket string) ([]string, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check bucket existence")
	}
	if !exists {
		return nil, errors.WithHint(
			errors.Newf("bucket %s does not exist", bucket),
			"create the bucket or point storage.bucket at an existing one",
		)
	}

	var missing []string
	for _, folder := range RequiredFolders {
		opts := minio.ListObjectsOptions{
			Prefix:    folderPath(folder),
			Recursive: false,
			MaxKeys:   1,
		}

		found := false
		for range client.ListObjects(ctx, bucket, opts) {
			found = true
			break
		}
		if !found {
			missing = append(missing, folder)
		}
	}
	return missing, nil
}

// FixStructure creates the missing folders as empty marker objects.
func FixStructure(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger, missing []string) error {
	for _, folder := range missing {
		_, err := client.PutObject(ctx, bucket, folderPath(folder), bytes.NewReader(nil), 0, minio.PutObjectOptions{})
		if err != nil {
			logger.Error("Failed to create folder", zap.String("folder", folder), zap.Error(err))
			return errors.Wrapf(err, "create folder %s", folder)
		}
		logger.Info("Created missing folder", zap.String("folder", folder))
	}
	return nil
}

func folderPath(folder string) string {
	if strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}
