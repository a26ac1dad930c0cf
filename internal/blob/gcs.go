package blob

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSUploader writes payloads to a Cloud Storage bucket. Object names carry
// the entity path, so a re-upload to the same slot with the same file name
// overwrites in place rather than accumulating objects.
type GCSUploader struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSUploader wraps an existing storage client. baseURL is the public
// host the returned URLs are rooted at.
func NewGCSUploader(client *storage.Client, bucket, baseURL string) *GCSUploader {
	return &GCSUploader{client: client, bucket: bucket, baseURL: baseURL}
}

func (u *GCSUploader) Upload(ctx context.Context, p Payload) (string, error) {
	writer := u.client.Bucket(u.bucket).Object(p.Key).NewWriter(ctx)
	writer.ContentType = p.ContentType

	if _, err := writer.Write(p.Data); err != nil {
		_ = writer.Close()
		return "", uploadErr(p.Key, err)
	}
	if err := writer.Close(); err != nil {
		return "", uploadErr(p.Key, err)
	}
	return fmt.Sprintf("%s/%s/%s", u.baseURL, u.bucket, p.Key), nil
}

func uploadErr(key string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("blob store rejected %s (HTTP %d): %w", key, gerr.Code, err)
	}
	return fmt.Errorf("failed to upload %s: %w", key, err)
}
