package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// BlobStore archives raw import payloads.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}

var ErrEmptyKey = errors.New("empty key")

type Options struct {
	Driver   string // fs|s3|none
	BasePath string // fs

	S3Bucket    string
	S3Region    string
	S3Endpoint  string // optional, e.g. a MinIO URL
	S3Prefix    string
	S3PathStyle bool
}

// Open returns nil, nil when archiving is disabled.
func Open(o Options) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(o.Driver)) {
	case "", "none", "off":
		return nil, nil
	case "fs":
		return NewFSStore(o.BasePath)
	case "s3", "minio":
		return NewS3Store(o)
	}
	return nil, fmt.Errorf("unsupported blob driver: %s", o.Driver)
}
