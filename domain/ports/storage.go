package ports

import "io"

// BlobStore is durable byte storage addressed by path/key. The pipeline never
// assumes a local filesystem behind it; blobs are staged to a scratch
// directory before the encoding tools run.
type BlobStore interface {
	// UploadFile stores the reader's content at path and returns the public
	// URL of the stored object.
	UploadFile(file io.Reader, path string, contentType string) (string, error)

	// GetFileContent opens the object at path for reading.
	// Returns the reader, the content type, and an error.
	GetFileContent(path string) (io.ReadCloser, string, error)

	// DeleteFile removes the object at path. Deleting a missing object is not
	// an error.
	DeleteFile(path string) error

	// GetFileURL returns the public URL for the object at path.
	GetFileURL(path string) string

	// GetProviderName names the backing provider (local, s3).
	GetProviderName() string
}
