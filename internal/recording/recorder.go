package recording

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"lingostream/pkg/logger"

	"go.uber.org/zap"
)

// Recorder archives the raw audio chunks of one connection in receipt
// order. Archive failures are the caller's to log and ignore; recording is
// never allowed to break the live stream.
type Recorder interface {
	SaveChunk(ctx context.Context, data []byte) error
	Close() error
}

// NopRecorder discards all chunks. Used when recording is disabled.
type NopRecorder struct{}

func (NopRecorder) SaveChunk(ctx context.Context, data []byte) error { return nil }
func (NopRecorder) Close() error                                     { return nil }

// DiskRecorder writes numbered chunk files into a per-connection directory.
type DiskRecorder struct {
	dir string
	seq int
}

// NewDiskRecorder creates audio-<connectionID> under baseDir.
func NewDiskRecorder(baseDir, connectionID string) (*DiskRecorder, error) {
	dir := filepath.Join(baseDir, fmt.Sprintf("audio-%s", connectionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	logger.Info("Audio chunks will be saved", zap.String("dir", dir))
	return &DiskRecorder{dir: dir}, nil
}

func (r *DiskRecorder) SaveChunk(ctx context.Context, data []byte) error {
	r.seq++
	filename := filepath.Join(r.dir, fmt.Sprintf("%05d.wav", r.seq))

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", r.seq, err)
	}

	logger.Debug("Saved audio chunk",
		zap.Int("seq", r.seq),
		zap.Int("size", len(data)))
	return nil
}

func (r *DiskRecorder) Close() error { return nil }
