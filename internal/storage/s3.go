package storage

import (
	"bytes"
	"errors"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store keeps payloads in an S3 (or S3-compatible) bucket. Credentials come
// from the default AWS chain.
type S3Store struct {
	client s3iface.S3API
	bucket string
	prefix string
	ttl    time.Duration
}

func NewS3Store(o Options) (*S3Store, error) {
	if o.S3Bucket == "" {
		return nil, errors.New("s3: bucket required")
	}
	cfg := &aws.Config{
		Region:           aws.String(o.S3Region),
		S3ForcePathStyle: aws.Bool(o.S3PathStyle),
	}
	if o.S3Endpoint != "" {
		cfg.Endpoint = aws.String(o.S3Endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewS3StoreWithClient(s3.New(sess), o.S3Bucket, o.S3Prefix), nil
}

func NewS3StoreWithClient(client s3iface.S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, ttl: 15 * time.Minute}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Store) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	// payloads are capped upstream, so buffering gives PutObject its ReadSeeker
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) Get(key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Store) SignedURL(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return req.Presign(s.ttl)
}
