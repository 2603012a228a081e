package dal

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const presignExpiry = time.Hour

// ObjectStore hands out presigned URLs for the data lake bucket so the
// frontend fetches and uploads objects directly, and lists layer prefixes
// for health and exploration views.
type ObjectStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewObjectStore(client *s3.Client, bucket string) *ObjectStore {
	return &ObjectStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

// SignedDownloadURL returns a time-limited URL for reading one object.
func (s *ObjectStore) SignedDownloadURL(ctx context.Context, key string) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// SignedUploadURL returns a time-limited URL for writing one object.
func (s *ObjectStore) SignedUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/json"
	}

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// ListObjects lists objects under a prefix, e.g. one of the lake layers.
func (s *ObjectStore) ListObjects(ctx context.Context, prefix string) ([]types.Object, error) {
	result, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, err
	}

	return result.Contents, nil
}
