package objectstore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-stretch/internal/objectstore"
)

func startServer(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := test.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return nc
}

func TestUploadDownload(t *testing.T) {
	nc := startServer(t)
	ctx := context.Background()

	store, err := objectstore.New(ctx, nc, "meditations")
	require.NoError(t, err)
	require.Equal(t, "meditations", store.Bucket())

	data := bytes.Repeat([]byte("RIFF"), 100_000)
	require.NoError(t, store.Upload(ctx, "job.wav", data))

	got, err := store.Download(ctx, "job.wav")
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, store.Upload(ctx, "job.wav", []byte("v2")))

	got, err = store.Download(ctx, "job.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestBindsExistingBucket(t *testing.T) {
	nc := startServer(t)
	ctx := context.Background()

	first, err := objectstore.New(ctx, nc, "meditations")
	require.NoError(t, err)
	require.NoError(t, first.Upload(ctx, "a.wav", []byte("a")))

	second, err := objectstore.New(ctx, nc, "meditations")
	require.NoError(t, err)

	got, err := second.Download(ctx, "a.wav")
	require.NoError(t, err)
	require.Equal(t, []byte("a"), got)
}

func TestDownloadMissing(t *testing.T) {
	nc := startServer(t)

	store, err := objectstore.New(context.Background(), nc, "meditations")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "nope.wav")
	require.ErrorIs(t, err, objectstore.ErrNotFound)
}
