// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/config"
	"github.com/javajoker/confectionery-backend/internal/metrics"
)

const productImageFolder = "products"

// ImageStore keeps product photos addressed by relative path.
type ImageStore interface {
	// Store validates and writes an image, returning its relative path.
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	// Delete removes a stored image. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public address of a stored path.
	URL(path string) string
}

type blobBackend interface {
	write(ctx context.Context, key string, data []byte, contentType string) error
	delete(ctx context.Context, key string) error
	exists(ctx context.Context, key string) (bool, error)
	url(key string) string
	close() error
}

type StorageService struct {
	backend blobBackend
	maxSize int64
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var (
		backend blobBackend
		err     error
	)

	switch cfg.Storage.Driver {
	case "s3":
		backend, err = newS3Backend(cfg)
	case "memory":
		backend = &bucketBackend{
			bucket:  memblob.OpenBucket(nil),
			baseURL: cfg.Storage.PublicBaseURL,
		}
	default:
		var bucket *blob.Bucket
		bucket, err = fileblob.OpenBucket(cfg.Storage.LocalPath, &fileblob.Options{CreateDir: true})
		if err == nil {
			backend = &bucketBackend{bucket: bucket, baseURL: cfg.Storage.PublicBaseURL}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s image storage: %w", cfg.Storage.Driver, err)
	}

	return &StorageService{
		backend: backend,
		maxSize: cfg.Storage.MaxImageSize,
	}, nil
}

func (s *StorageService) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := s.ValidateImage(data, contentType); err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	key := s.generateFileName(mtype.Extension())

	err := s.backend.write(ctx, key, data, mtype.String())
	metrics.RecordBlobOperation("store", err)
	if err != nil {
		return "", apperrors.Storage(err, "failed to store image")
	}

	return key, nil
}

func (s *StorageService) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	err := s.backend.delete(ctx, path)
	metrics.RecordBlobOperation("delete", err)
	if err != nil {
		return apperrors.Storage(err, "failed to delete image")
	}
	return nil
}

func (s *StorageService) URL(path string) string {
	return s.backend.url(path)
}

// Exists reports whether a blob is stored at path.
func (s *StorageService) Exists(ctx context.Context, path string) (bool, error) {
	return s.backend.exists(ctx, path)
}

func (s *StorageService) Close() error {
	return s.backend.close()
}

// ValidateImage checks the size limit and that both the sniffed and the
// declared content types are accepted raster images.
func (s *StorageService) ValidateImage(data []byte, contentType string) error {
	if len(data) == 0 {
		return apperrors.FieldError("images", "required", "image is empty")
	}

	if int64(len(data)) > s.maxSize {
		return apperrors.FieldError("images", "max",
			fmt.Sprintf("image exceeds the maximum size of %d kilobytes", s.maxSize/1024))
	}

	if !isImageType(mimetype.Detect(data).String()) {
		return apperrors.FieldError("images", "image", "file must be an image")
	}

	declared := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if declared != "" && declared != "application/octet-stream" && !isImageType(declared) {
		return apperrors.FieldError("images", "image", "file must be an image")
	}

	return nil
}

// acceptedImageTypes lists the raster formats served back to browsers.
// Scriptable formats such as SVG are refused.
var acceptedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
}

func isImageType(mime string) bool {
	_, ok := acceptedImageTypes[strings.ToLower(mime)]
	return ok
}

func (s *StorageService) generateFileName(ext string) string {
	return fmt.Sprintf("%s/%s%s", productImageFolder, uuid.New().String(), ext)
}

// bucketBackend serves the local and in-memory drivers through gocloud.dev.
type bucketBackend struct {
	bucket  *blob.Bucket
	baseURL string
}

func (b *bucketBackend) write(ctx context.Context, key string, data []byte, contentType string) error {
	return b.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})
}

func (b *bucketBackend) delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (b *bucketBackend) exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.Exists(ctx, key)
}

func (b *bucketBackend) url(key string) string {
	return fmt.Sprintf("%s/storage/%s", b.baseURL, key)
}

func (b *bucketBackend) close() error {
	return b.bucket.Close()
}

type s3Backend struct {
	client        *s3.S3
	bucket        string
	region        string
	endpoint      string
	cloudFrontURL string
}

func newS3Backend(cfg *config.Config) (*s3Backend, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		)
	}
	if cfg.AWS.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWS.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	// Create AWS session
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &s3Backend{
		client:        s3.New(sess),
		bucket:        cfg.AWS.S3Bucket,
		region:        cfg.AWS.Region,
		endpoint:      strings.TrimRight(cfg.AWS.S3Endpoint, "/"),
		cloudFrontURL: cfg.AWS.CloudFrontURL,
	}, nil
}

func (b *s3Backend) write(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// S3 answers DeleteObject for a missing key with success.
func (b *s3Backend) delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (b *s3Backend) exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.RequestFailure); ok && aerr.StatusCode() == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *s3Backend) url(key string) string {
	if b.cloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", b.cloudFrontURL, key)
	}
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}

func (b *s3Backend) close() error {
	return nil
}
