package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appconfig "github.com/sweetcrumb/bakebill-api/internal/config"
	"github.com/sweetcrumb/bakebill-api/pkg/apperror"
)

const objectPrefix = "bills/"

// s3API is the slice of the S3 client the uploader needs. *s3.Client
// satisfies it; tests substitute a fake.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// UploadResult describes a successfully published invoice document.
type UploadResult struct {
	PublicURL string `json:"public_url"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
}

// StoredObject is one enumerated document, for operational visibility.
type StoredObject struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates the stored documents.
type Stats struct {
	ObjectCount int   `json:"object_count"`
	TotalSize   int64 `json:"total_size"`
}

// Uploader publishes invoice PDFs to S3-compatible object storage.
type Uploader struct {
	client s3API
	cfg    appconfig.StorageConfig
}

// NewUploader creates an uploader against real S3 (or a compatible endpoint).
func NewUploader(ctx context.Context, cfg appconfig.StorageConfig) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})

	return &Uploader{client: client, cfg: cfg}, nil
}

// NewUploaderWithClient wires a pre-built client; used by tests.
func NewUploaderWithClient(client s3API, cfg appconfig.StorageConfig) *Uploader {
	return &Uploader{client: client, cfg: cfg}
}

// EnsureBucketExists makes sure the bucket is usable. An existing bucket,
// including one we may not administer, counts as success; only genuine
// absence combined with a failed create is an error.
func (u *Uploader) EnsureBucketExists(ctx context.Context) (bool, error) {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.cfg.Bucket),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		// Bucket exists but we cannot HEAD it (e.g. restricted policy).
		if apperror.IsKind(classify(err), apperror.KindProviderPermission) {
			log.Printf("storage: bucket %s exists but access is restricted, continuing", u.cfg.Bucket)
			return true, nil
		}
		return false, classify(err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(u.cfg.Bucket)}
	if u.cfg.Region != "" && u.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(u.cfg.Region),
		}
	}
	if _, err := u.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return true, nil
		}
		return false, classify(err)
	}

	log.Printf("storage: created bucket %s", u.cfg.Bucket)
	return true, nil
}

// Upload publishes an invoice PDF under a collision-resistant key and
// returns the publicly resolvable URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, billNumber string) (*UploadResult, error) {
	key := fmt.Sprintf("%sbill_%s_%d.pdf", objectPrefix, billNumber, time.Now().Unix())

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return nil, classify(err)
	}

	return &UploadResult{
		PublicURL: u.publicURL(key),
		Key:       key,
		Size:      int64(len(data)),
	}, nil
}

// DeleteOlderThan removes every stored document strictly older than
// now - days. Safe to run repeatedly; returns the keys deleted.
func (u *Uploader) DeleteOlderThan(ctx context.Context, days int) ([]string, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	objects, err := u.list(ctx)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, obj := range objects {
		if obj.CreatedAt.Before(cutoff) {
			stale = append(stale, obj.Key)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(stale); start += 1000 {
		end := start + 1000
		if end > len(stale) {
			end = len(stale)
		}
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range stale[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := u.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(u.cfg.Bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return nil, classify(err)
		}
	}

	log.Printf("storage: retention removed %d documents older than %d days", len(stale), days)
	return stale, nil
}

// ListAll enumerates the stored invoice documents.
func (u *Uploader) ListAll(ctx context.Context) ([]StoredObject, error) {
	return u.list(ctx)
}

// GetStats aggregates count and total size of stored documents.
func (u *Uploader) GetStats(ctx context.Context) (*Stats, error) {
	objects, err := u.list(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{ObjectCount: len(objects)}
	for _, obj := range objects {
		stats.TotalSize += obj.Size
	}
	return stats, nil
}

func (u *Uploader) list(ctx context.Context) ([]StoredObject, error) {
	var objects []StoredObject
	var token *string

	for {
		out, err := u.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(u.cfg.Bucket),
			Prefix:            aws.String(objectPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classify(err)
		}
		for _, obj := range out.Contents {
			o := StoredObject{Key: aws.ToString(obj.Key), URL: u.publicURL(aws.ToString(obj.Key))}
			if obj.Size != nil {
				o.Size = *obj.Size
			}
			if obj.LastModified != nil {
				o.CreatedAt = *obj.LastModified
			}
			objects = append(objects, o)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	return objects, nil
}

func (u *Uploader) publicURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(u.cfg.PublicBaseURL, "/") + "/" + key
	}
	if u.cfg.Endpoint != "" {
		return strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}

// classify maps an S3 call failure onto the application error taxonomy so
// callers switch on a kind instead of matching vendor message text.
func classify(err error) *apperror.AppError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AllAccessDisabled":
			return apperror.NewProviderPermissionError(
				"storage access denied: grant s3:PutObject/s3:ListBucket on the bucket (" + apiErr.ErrorMessage() + ")")
		case "ExpiredToken", "InvalidAccessKeyId", "SignatureDoesNotMatch", "TokenRefreshRequired":
			return apperror.NewProviderAuthError("storage credential rejected: " + apiErr.ErrorMessage())
		case "NoSuchBucket", "NotFound":
			return apperror.NewProviderRequestError("storage bucket missing: " + apiErr.ErrorMessage())
		case "RequestTimeout", "SlowDown", "ServiceUnavailable", "InternalError":
			return apperror.NewTransientNetworkError("storage temporarily unavailable: " + apiErr.ErrorMessage())
		default:
			return apperror.NewProviderRequestError("storage request failed: " + apiErr.ErrorCode() + ": " + apiErr.ErrorMessage())
		}
	}
	return apperror.NewTransientNetworkError("storage unreachable: " + err.Error())
}
