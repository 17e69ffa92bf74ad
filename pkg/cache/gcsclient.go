package cache

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
)

// The interfaces below abstract the Google Cloud Storage client so GCSStore
// can be tested without a real bucket.

// GCSClient abstracts the top-level *storage.Client.
type GCSClient interface {
	Bucket(name string) GCSBucketHandle
}

// GCSBucketHandle abstracts a *storage.BucketHandle.
type GCSBucketHandle interface {
	Object(name string) GCSObjectHandle
}

// GCSObjectHandle abstracts a *storage.ObjectHandle.
type GCSObjectHandle interface {
	NewWriter(ctx context.Context) GCSWriter
	NewReader(ctx context.Context) (io.ReadCloser, error)
	// Metadata returns the object's custom metadata.
	Metadata(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context) error
}

// GCSWriter abstracts a *storage.Writer. SetAttrs must be called before the
// first Write.
type GCSWriter interface {
	io.WriteCloser
	SetAttrs(contentType, contentEncoding string, metadata map[string]string)
}

// gcsClientAdapter wraps a *storage.Client to satisfy the GCSClient interface.
type gcsClientAdapter struct {
	client *storage.Client
}

// NewGCSClientAdapter makes the concrete *storage.Client conform to GCSClient.
func NewGCSClientAdapter(client *storage.Client) GCSClient {
	if client == nil {
		return nil
	}
	return &gcsClientAdapter{client: client}
}

func (a *gcsClientAdapter) Bucket(name string) GCSBucketHandle {
	return &gcsBucketHandleAdapter{handle: a.client.Bucket(name)}
}

type gcsBucketHandleAdapter struct {
	handle *storage.BucketHandle
}

func (a *gcsBucketHandleAdapter) Object(name string) GCSObjectHandle {
	return &gcsObjectHandleAdapter{handle: a.handle.Object(name)}
}

type gcsObjectHandleAdapter struct {
	handle *storage.ObjectHandle
}

func (a *gcsObjectHandleAdapter) NewWriter(ctx context.Context) GCSWriter {
	return &gcsWriterAdapter{Writer: a.handle.NewWriter(ctx)}
}

func (a *gcsObjectHandleAdapter) NewReader(ctx context.Context) (io.ReadCloser, error) {
	// ReadCompressed keeps GCS from transcoding the gzip body on the way out.
	return a.handle.ReadCompressed(true).NewReader(ctx)
}

func (a *gcsObjectHandleAdapter) Metadata(ctx context.Context) (map[string]string, error) {
	attrs, err := a.handle.Attrs(ctx)
	if err != nil {
		return nil, err
	}
	return attrs.Metadata, nil
}

func (a *gcsObjectHandleAdapter) Delete(ctx context.Context) error {
	return a.handle.Delete(ctx)
}

type gcsWriterAdapter struct {
	*storage.Writer
}

func (w *gcsWriterAdapter) SetAttrs(contentType, contentEncoding string, metadata map[string]string) {
	w.ContentType = contentType
	w.ContentEncoding = contentEncoding
	w.Metadata = metadata
}
