// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface covering the operations the
// guide builder needs: mirroring station logos (StatObject + PutObject), serving them
// back (GetObject) and checking bucket layout (BucketExists, ListObjects, MakeBucket).
// Both AWS S3 and self-hosted MinIO instances are supported.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider so storage
// interactions can be mocked in unit tests (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	info, err := client.StatObject(ctx, "guide", "logos/10001.png", minio.StatObjectOptions{})
//	if storage.IsNotFound(err) {
//	    // first download
//	}
package storage
