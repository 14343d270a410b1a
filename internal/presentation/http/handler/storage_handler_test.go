package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/internal/infrastructure/storage"
)

// stubS3 serves the list and delete calls the storage endpoints exercise.
type stubS3 struct {
	keys map[string]time.Time
}

func (s *stubS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func (s *stubS3) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

func (s *stubS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for k, mod := range s.keys {
		if strings.HasPrefix(k, aws.ToString(params.Prefix)) {
			out.Contents = append(out.Contents, types.Object{
				Key:          aws.String(k),
				Size:         aws.Int64(100),
				LastModified: aws.Time(mod),
			})
		}
	}
	return out, nil
}

func (s *stubS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, id := range params.Delete.Objects {
		delete(s.keys, aws.ToString(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func storageRouter(uploader *storage.Uploader, cfg *config.Config) *gin.Engine {
	h := NewStorageHandler(uploader, cfg)
	r := gin.New()
	r.GET("/storage/documents", h.ListDocuments)
	r.GET("/storage/stats", h.Stats)
	r.POST("/storage/cleanup", h.Cleanup)
	return r
}

func TestStorageEndpointsUnavailableWithoutUploader(t *testing.T) {
	r := storageRouter(nil, testConfig())

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/storage/documents"},
		{http.MethodGet, "/storage/stats"},
		{http.MethodPost, "/storage/cleanup"},
	} {
		w := doJSON(t, r, req.method, req.path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, req.path)
	}
}

func storedUploader(keys map[string]time.Time) *storage.Uploader {
	return storage.NewUploaderWithClient(&stubS3{keys: keys}, config.StorageConfig{
		Bucket: "invoices", Region: "ap-south-1", RetentionDays: 90,
	})
}

func TestStorageListDocuments(t *testing.T) {
	uploader := storedUploader(map[string]time.Time{
		"bills/bill_A.pdf": time.Now(),
		"bills/bill_B.pdf": time.Now(),
	})
	r := storageRouter(uploader, testConfig())

	w := doJSON(t, r, http.MethodGet, "/storage/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
}

func TestStorageStats(t *testing.T) {
	uploader := storedUploader(map[string]time.Time{
		"bills/bill_A.pdf": time.Now(),
	})
	r := storageRouter(uploader, testConfig())

	w := doJSON(t, r, http.MethodGet, "/storage/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"object_count":1`)
}

func TestStorageCleanup(t *testing.T) {
	keys := map[string]time.Time{
		"bills/bill_OLD.pdf": time.Now().AddDate(0, 0, -120),
		"bills/bill_NEW.pdf": time.Now(),
	}
	uploader := storedUploader(keys)
	r := storageRouter(uploader, testConfig())

	w := doJSON(t, r, http.MethodPost, "/storage/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), `"deleted_count":1`)
	assert.Contains(t, w.Body.String(), "bill_OLD.pdf")
	_, kept := keys["bills/bill_NEW.pdf"]
	assert.True(t, kept)
}

func TestStorageCleanupOverrideWindow(t *testing.T) {
	keys := map[string]time.Time{
		"bills/bill_WEEK.pdf": time.Now().AddDate(0, 0, -8),
	}
	uploader := storedUploader(keys)
	r := storageRouter(uploader, testConfig())

	w := doJSON(t, r, http.MethodPost, "/storage/cleanup", map[string]any{"older_than_days": 7})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"older_than_days":7`)
	assert.Empty(t, keys)
}

func TestStorageCleanupDisabledWithoutWindow(t *testing.T) {
	uploader := storedUploader(map[string]time.Time{})
	cfg := testConfig()
	cfg.Storage.RetentionDays = 0
	r := storageRouter(uploader, cfg)

	w := doJSON(t, r, http.MethodPost, "/storage/cleanup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
