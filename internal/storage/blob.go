// Package storage abstracts the object store holding question images and
// archived source documents. The fs backend serves development; minio
// serves any S3-compatible deployment.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}

// Key layout. Objects under tmp/ are reclaimable by a bucket lifecycle
// rule; everything else is permanent.

// TmpKey stages an original upload pending commit.
func TmpKey(originalName string) string {
	return "tmp/" + uuid.NewString() + "_" + path.Base(originalName)
}

// ArchiveKey is the permanent home of a committed source document.
func ArchiveKey(originalName string) string {
	return "archives/" + uuid.NewString() + "_" + path.Base(originalName)
}

// ImageKey holds one imported question image.
func ImageKey(questionID int64) string {
	return fmt.Sprintf("questions/%d/images/%s.png", questionID, uuid.NewString())
}

// Promote moves a staged tmp/ object to its permanent key: copy then
// delete. A failed delete leaves the tmp object for the lifecycle rule.
func Promote(ctx context.Context, bs BlobStore, tmpKey, finalKey string) error {
	if err := bs.Copy(ctx, tmpKey, finalKey); err != nil {
		return err
	}
	_ = bs.Delete(ctx, tmpKey)
	return nil
}
