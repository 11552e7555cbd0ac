package checks

import (
	"context"
	"testing"

	"guide-builder/core/errors"
	"guide-builder/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "guide").Return(false, nil)

		_, err := CheckStructure(context.Background(), mockClient, "guide")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
		assert.NotEmpty(t, errors.GetAllHints(err))
	})

	t.Run("Bucket Check Fails", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "guide").Return(false, errors.New("connection refused"))

		_, err := CheckStructure(context.Background(), mockClient, "guide")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("All Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "guide").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "guide", mock.Anything).Return(mocks.ObjectList())

		missing, err := CheckStructure(context.Background(), mockClient, "guide")
		assert.NoError(t, err)
		assert.Equal(t, RequiredFolders, missing)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "guide").Return(true, nil)

		for _, folder := range RequiredFolders {
			mockClient.On("ListObjects", mock.Anything, "guide", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == folder+"/"
			})).Return(mocks.ObjectList(minio.ObjectInfo{Key: folder + "/"}))
		}

		missing, err := CheckStructure(context.Background(), mockClient, "guide")
		assert.NoError(t, err)
		assert.Empty(t, missing)
	})
}

func TestFixStructure(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "guide", "logos/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	err := FixStructure(context.Background(), mockClient, "guide", zap.NewNop(), []string{"logos"})
	assert.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestFixStructure_Error(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "guide", "artwork/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, errors.New("denied"))

	err := FixStructure(context.Background(), mockClient, "guide", zap.NewNop(), []string{"artwork", "logos"})
	assert.ErrorContains(t, err, "denied")
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}
