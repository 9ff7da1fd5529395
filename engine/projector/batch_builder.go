package projector

import "github.com/charmbracelet/log"

// BatchBuilderOption configures a Batch.
type BatchBuilderOption func(*batchImpl)

// WithWorkers sets the maximum number of pool workers.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - BatchBuilderOption: a function that sets the worker count
func WithWorkers(n int) BatchBuilderOption {
	return func(b *batchImpl) {
		b.workers = n
	}
}

// WithChunkSize sets how many points a single task projects. Streams no longer than one chunk
// are projected on the calling goroutine.
//
// Parameters:
//   - n: points per task
//
// Returns:
//   - BatchBuilderOption: a function that sets the chunk size
func WithChunkSize(n int) BatchBuilderOption {
	return func(b *batchImpl) {
		b.chunkSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) BatchBuilderOption {
	return func(b *batchImpl) {
		if l != nil {
			b.logger = l
		}
	}
}
