package recording

import (
	"bytes"
	"context"
	"fmt"

	"lingostream/internal/storage"
)

// S3Recorder uploads each chunk as its own object so a partial session is
// still recoverable if the process dies mid-stream.
type S3Recorder struct {
	store        *storage.S3Storage
	connectionID string
	seq          int
}

func NewS3Recorder(store *storage.S3Storage, connectionID string) *S3Recorder {
	return &S3Recorder{
		store:        store,
		connectionID: connectionID,
	}
}

func (r *S3Recorder) SaveChunk(ctx context.Context, data []byte) error {
	r.seq++
	key := r.store.ChunkKey(r.connectionID, r.seq)

	if err := r.store.UploadObject(ctx, key, bytes.NewReader(data), "audio/wav"); err != nil {
		return fmt.Errorf("failed to archive chunk %d: %w", r.seq, err)
	}
	return nil
}

func (r *S3Recorder) Close() error { return nil }
