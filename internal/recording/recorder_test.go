package recording

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskRecorder_NumbersChunksInOrder(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	r, err := NewDiskRecorder(base, "conn-1")
	require.NoError(t, err)

	require.NoError(t, r.SaveChunk(ctx, []byte("first")))
	require.NoError(t, r.SaveChunk(ctx, []byte("second")))
	require.NoError(t, r.Close())

	dir := filepath.Join(base, "audio-conn-1")

	data, err := os.ReadFile(filepath.Join(dir, "00001.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)

	data, err = os.ReadFile(filepath.Join(dir, "00002.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDiskRecorder_SeparateConnectionsSeparateDirs(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	a, err := NewDiskRecorder(base, "conn-a")
	require.NoError(t, err)
	b, err := NewDiskRecorder(base, "conn-b")
	require.NoError(t, err)

	require.NoError(t, a.SaveChunk(ctx, []byte("a")))
	require.NoError(t, b.SaveChunk(ctx, []byte("b")))

	assert.FileExists(t, filepath.Join(base, "audio-conn-a", "00001.wav"))
	assert.FileExists(t, filepath.Join(base, "audio-conn-b", "00001.wav"))
}

func TestNopRecorder(t *testing.T) {
	r := NopRecorder{}
	assert.NoError(t, r.SaveChunk(context.Background(), []byte("ignored")))
	assert.NoError(t, r.Close())
}
