package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioS3Client stores uploaded gallery photos in a bucket.
type MinioS3Client struct {
	endpoint   string
	bucketName string
	presignTTL time.Duration
	client     ClientMinio
}

const (
	defaultContentType = "application/octet-stream"
	imagePrefix        = "images/"
	maxPresignTTL      = 7 * 24 * time.Hour
)

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool, presignTTL time.Duration) (*MinioS3Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}
	return NewS3ClientWith(minioClient, endpoint, bucketName, presignTTL), nil
}

// NewS3ClientWith wraps an existing client, used by tests with a fake.
func NewS3ClientWith(client ClientMinio, endpoint, bucketName string, presignTTL time.Duration) *MinioS3Client {
	if presignTTL <= 0 || presignTTL > maxPresignTTL {
		presignTTL = maxPresignTTL
	}
	return &MinioS3Client{
		endpoint:   endpoint,
		bucketName: bucketName,
		presignTTL: presignTTL,
		client:     client,
	}
}

// Check verifies the bucket is reachable.
func (s3 *MinioS3Client) Check(ctx context.Context) error {
	ok, err := s3.client.BucketExists(ctx, s3.bucketName)
	if err != nil {
		return fmt.Errorf("can not reach bucket %s: %w", s3.bucketName, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s3.bucketName)
	}
	return nil
}

// ObjectKey is where the photo with the given record id is stored.
func ObjectKey(id string) string {
	return imagePrefix + id + ".jpg"
}

// UploadImage stores the encoded photo under key and returns a presigned URL
// the gallery can render directly.
func (s3 *MinioS3Client) UploadImage(ctx context.Context, key string, img EncodedImage) (string, error) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		key,
		bytes.NewReader(img.Data),
		int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("can not upload %s: %w", key, err)
	}
	return s3.ImageURL(ctx, key)
}

// ImageURL returns a presigned GET URL for key.
func (s3 *MinioS3Client) ImageURL(ctx context.Context, key string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", key))
	presigned, err := s3.client.PresignedGetObject(ctx, s3.bucketName, key, s3.presignTTL, reqParams)
	if err != nil {
		return "", fmt.Errorf("can not presign %s: %w", key, err)
	}
	return presigned.String(), nil
}

func (s3 *MinioS3Client) DeleteImage(ctx context.Context, key string) error {
	err := s3.client.RemoveObject(ctx, s3.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("can not remove %s: %w", key, err)
	}
	slog.Info("removed image object", "bucket", s3.bucketName, "key", key)
	return nil
}
