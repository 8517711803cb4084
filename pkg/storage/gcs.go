package storage

import (
	"context"
	"io"
	"path"

	gcs "cloud.google.com/go/storage"
	"github.com/cyclopcam/logs"
)

// StorageGCS stores files in a Google Cloud Storage bucket, below an optional prefix
type StorageGCS struct {
	bucketName string
	prefix     string
	bucket     *gcs.BucketHandle
	log        logs.Log
}

// NewStorageGCS uses the application default credentials
func NewStorageGCS(ctx context.Context, log logs.Log, bucketName, prefix string) (*StorageGCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &StorageGCS{
		bucketName: bucketName,
		prefix:     prefix,
		bucket:     client.Bucket(bucketName),
		log:        log,
	}, nil
}

func (s *StorageGCS) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *StorageGCS) WriteFile(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	return s.bucket.Object(s.objectName(name)).NewWriter(ctx), nil
}

func (s *StorageGCS) ReadFile(ctx context.Context, name string) (*File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	r, err := s.bucket.Object(s.objectName(name)).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return &File{
		Reader:     r,
		ModifiedAt: r.Attrs.LastModified,
		Size:       r.Attrs.Size,
	}, nil
}

func (s *StorageGCS) DeleteFile(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	s.log.Infof("Deleting gs://%v/%v", s.bucketName, s.objectName(name))
	return s.bucket.Object(s.objectName(name)).Delete(ctx)
}

func (s *StorageGCS) Location(name string) string {
	return "gs://" + s.bucketName + "/" + s.objectName(name)
}
