package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

// Storage is the destination of published run artifacts
type Storage interface {
	// When finished, you must close the WriteCloser
	WriteFile(ctx context.Context, name string) (io.WriteCloser, error)

	// When finished, you must close File.Reader
	ReadFile(ctx context.Context, name string) (*File, error)

	DeleteFile(ctx context.Context, name string) error

	// Describe where 'name' ends up, for logging
	Location(name string) string
}

// File is an element in storage
type File struct {
	Reader     io.ReadCloser
	ModifiedAt time.Time
	Size       int64
}

// Open creates a storage from a location string.
// "gs://bucket/prefix" is a Google Cloud Storage bucket, "dir:/path" or a plain path is a local directory.
func Open(ctx context.Context, log logs.Log, location string) (Storage, error) {
	if rest, ok := strings.CutPrefix(location, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, errors.Errorf("Invalid storage location '%v': missing bucket name", location)
		}
		return NewStorageGCS(ctx, log, bucket, prefix)
	}
	root := strings.TrimPrefix(location, "dir:")
	if root == "" {
		return nil, errors.Errorf("Invalid storage location '%v'", location)
	}
	return NewStorageFS(log, root)
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "..") {
		return errors.Errorf("Invalid file name '%v'", name)
	}
	return nil
}

func WriteFile(ctx context.Context, s Storage, name string, content io.Reader) error {
	f, err := s.WriteFile(ctx, name)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	errClose := f.Close()
	if err != nil {
		return err
	}
	return errClose
}

func ReadFile(ctx context.Context, s Storage, name string) ([]byte, error) {
	f, err := s.ReadFile(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Reader.Close()
	return io.ReadAll(f.Reader)
}

// Publish copies local files into storage, under the directory 'stamp'.
// Returns the storage names of the published files.
func Publish(ctx context.Context, log logs.Log, s Storage, stamp string, filenames []string) ([]string, error) {
	names := []string{}
	for _, fn := range filenames {
		name := stamp + "/" + filepath.Base(fn)
		if err := publishFile(ctx, s, name, fn); err != nil {
			return names, errors.Wrapf(err, "Failed to publish %v", fn)
		}
		log.Infof("Published %v to %v", fn, s.Location(name))
		names = append(names, name)
	}
	return names, nil
}

func publishFile(ctx context.Context, s Storage, name, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteFile(ctx, s, name, f)
}
