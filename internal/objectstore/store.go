// Package objectstore keeps rendered meditations in a NATS JetStream object
// store bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrNotFound reports a missing object.
var ErrNotFound = errors.New("objectstore: object not found")

// Store uploads and downloads objects by key.
type Store interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
}

// NatsStore is a Store backed by a JetStream object store bucket.
type NatsStore struct {
	bucket string
	store  jetstream.ObjectStore
}

// New creates bucket on the connection's JetStream, or binds to it when it
// already exists.
func New(ctx context.Context, nc *nats.Conn, bucket string) (*NatsStore, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("objectstore: jetstream: %w", err)
	}

	store, err := js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Rendered meditation audio.",
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("objectstore: create bucket %q: %w", bucket, err)
		}

		store, err = js.ObjectStore(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("objectstore: bind bucket %q: %w", bucket, err)
		}
	}

	return &NatsStore{bucket: bucket, store: store}, nil
}

// Bucket returns the bucket name.
func (s *NatsStore) Bucket() string {
	return s.bucket
}

// Upload stores data under key, replacing any previous object.
func (s *NatsStore) Upload(ctx context.Context, key string, data []byte) error {
	_, err := s.store.PutBytes(ctx, key, data)
	if err != nil {
		return fmt.Errorf("objectstore: put %q to %q: %w", key, s.bucket, err)
	}

	return nil
}

// Download returns the object stored under key.
func (s *NatsStore) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.GetBytes(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}

		return nil, fmt.Errorf("objectstore: get %q from %q: %w", key, s.bucket, err)
	}

	return data, nil
}
