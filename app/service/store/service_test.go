package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Service {
	t.Helper()

	svc, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "maven.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown() })

	return svc
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := openTemp(t)

	var missing []string
	found, err := svc.GetJSON(ctx, "maven-tasks", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, svc.PutJSON(ctx, "maven-tasks", []string{"buy milk"}))
	require.NoError(t, svc.PutJSON(ctx, "maven-tasks", []string{"buy milk", "call mom"}))

	var got []string
	found, err = svc.GetJSON(ctx, "maven-tasks", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"buy milk", "call mom"}, got)
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := openTemp(t)

	_, found, err := svc.GetBlob(ctx, "banner-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, svc.PutBlob(ctx, "banner-1", Blob{Data: []byte{1, 2, 3}, ContentType: "image/png"}))

	blob, found, err := svc.GetBlob(ctx, "banner-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{1, 2, 3}, blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)

	require.NoError(t, svc.DeleteBlob(ctx, "banner-1"))
	require.NoError(t, svc.DeleteBlob(ctx, "banner-1"))

	_, found, err = svc.GetBlob(ctx, "banner-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "maven.db")

	svc, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, svc.PutJSON(ctx, "maven-pomodoro-sessions", 3))
	require.NoError(t, svc.Shutdown())

	svc, err = Open(ctx, path)
	require.NoError(t, err)
	defer svc.Shutdown()

	var sessions int
	found, err := svc.GetJSON(ctx, "maven-pomodoro-sessions", &sessions)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, sessions)
}
