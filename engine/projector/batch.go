package projector

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultChunkSize is the number of points projected by a single pool task.
const DefaultChunkSize = 2048

// Batch projects large point streams in parallel. Work is split into chunks and fed to a
// reusable worker pool; small streams are projected inline.
type Batch interface {
	// Project projects every point of in into out using pr. It blocks until all chunks are
	// done. out must be at least len(in) long.
	//
	// Parameters:
	//   - pr: the projection configuration
	//   - in: the 4D points
	//   - out: the destination for the projected points
	//
	// Returns:
	//   - error: an error if out is too short or a chunk panicked
	Project(pr Projector, in []hypermath.Vec4, out []mgl64.Vec3) error

	// Workers returns the maximum number of pool workers.
	//
	// Returns:
	//   - int: the worker count
	Workers() int

	// Close stops the worker pool. Project must not be called afterwards.
	Close()
}

type batchImpl struct {
	mu        *sync.Mutex
	pool      worker.DynamicWorkerPool
	workers   int
	chunkSize int
	logger    *log.Logger
	closed    bool
}

var _ Batch = &batchImpl{}

// NewBatch creates a Batch backed by a dynamic worker pool.
//
// Parameters:
//   - opts: optional BatchBuilderOption functions
//
// Returns:
//   - Batch: the batch projector
func NewBatch(opts ...BatchBuilderOption) Batch {
	b := &batchImpl{
		mu:        &sync.Mutex{},
		workers:   runtime.NumCPU(),
		chunkSize: DefaultChunkSize,
		logger:    log.Default().WithPrefix("projector"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = 1
	}
	if b.chunkSize < 1 {
		b.chunkSize = DefaultChunkSize
	}
	b.pool = worker.NewDynamicWorkerPool(b.workers, 256, time.Second)
	return b
}

func (b *batchImpl) Project(pr Projector, in []hypermath.Vec4, out []mgl64.Vec3) error {
	if len(out) < len(in) {
		return fmt.Errorf("batch project: output holds %d points, need %d", len(out), len(in))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBatchClosed
	}
	if len(in) <= b.chunkSize {
		pr.ProjectAll(in, out)
		return nil
	}

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	taskID := 0
	for start := 0; start < len(in); start += b.chunkSize {
		end := min(start+b.chunkSize, len(in))
		lo, hi := start, end
		id := taskID
		taskID++
		wg.Add(1)
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (res any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errMu.Lock()
						if firstErr == nil {
							firstErr = fmt.Errorf("batch project: chunk %d panicked: %v", id, r)
						}
						errMu.Unlock()
					}
				}()
				pr.ProjectAll(in[lo:hi], out[lo:hi])
				return nil, nil
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		b.logger.Error("projection chunk failed", "err", firstErr)
	}
	return firstErr
}

func (b *batchImpl) Workers() int {
	return b.workers
}

func (b *batchImpl) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.pool.Stop()
}
