// Package storage abstracts the object store holding post images.
package storage

import (
	"context"
	"io"
)

// File is an object to upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// StoredObject identifies an uploaded object. Key is what the store needs to
// delete it again; URL is what clients use to fetch it.
type StoredObject struct {
	Key string
	URL string
}

// ObjectStorage uploads and removes post images. UploadMany is
// all-or-nothing: on failure it removes the objects it already stored before
// returning the error. DeleteMany is best-effort and reports the first
// failure after attempting every key.
type ObjectStorage interface {
	UploadMany(ctx context.Context, files []File) ([]StoredObject, error)
	DeleteMany(ctx context.Context, keys []string) error
}
