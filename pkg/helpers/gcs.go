package helpers

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Cloud Storage client from a credentials file, or from
// application default credentials when credsPath is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	return storage.NewClient(ctx, opts...)
}

// Object names are unique per upload, so objects never change.
const avatarCacheControl = "public, max-age=31536000, immutable"

// GCSUploader stores publicly readable objects in one bucket.
type GCSUploader struct {
	Client *storage.Client
	Bucket string
}

func NewGCSUploader(client *storage.Client, bucket string) *GCSUploader {
	return &GCSUploader{Client: client, Bucket: bucket}
}

// Upload streams r into objectPath and returns the object's public URL.
// Objects only become visible once the writer closes cleanly.
func (u *GCSUploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := u.Client.Bucket(u.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = avatarCacheControl
	w.ChunkSize = 0 // single request upload
	if _, err := io.Copy(w, r); err != nil {
		cancel() // aborts the pending upload
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", u.Bucket, objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", u.Bucket, objectPath, err)
	}
	return PublicURL(u.Bucket, objectPath), nil
}

// PublicURL is the storage.googleapis.com address of a public object.
func PublicURL(bucket, objectPath string) string {
	return (&url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + objectPath}).String()
}
