package render

import (
	"image"
	"math"
	"runtime"
	"sync"
)

// TileTask represents one tile of the evaluation grid
type TileTask struct {
	TaskID int
	Bounds image.Rectangle
}

// TileResult contains the value statistics from evaluating a tile
type TileResult struct {
	TaskID int
	Min    float64
	Max    float64
	Sum    float64
}

// WorkerPool manages parallel tile evaluation. Tiles have
// non-overlapping bounds, so workers write to the shared value grid
// without synchronization.
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	numWorkers  int
	wg          sync.WaitGroup
	eval        func(px, py int) float64
	values      [][]float64
}

// NewWorkerPool creates a pool that evaluates eval into values. The
// queues are buffered for maxTiles tasks so submission never blocks.
func NewWorkerPool(eval func(px, py int) float64, values [][]float64, maxTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),
		resultQueue: make(chan TileResult, maxTiles),
		numWorkers:  numWorkers,
		eval:        eval,
		values:      values,
	}
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop signals that no more tasks are coming and waits for the workers
// to drain the queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// run is the main worker loop
func (wp *WorkerPool) run() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		result := TileResult{
			TaskID: task.TaskID,
			Min:    math.Inf(1),
			Max:    math.Inf(-1),
		}
		for py := task.Bounds.Min.Y; py < task.Bounds.Max.Y; py++ {
			for px := task.Bounds.Min.X; px < task.Bounds.Max.X; px++ {
				v := wp.eval(px, py)
				wp.values[py][px] = v
				result.Min = math.Min(result.Min, v)
				result.Max = math.Max(result.Max, v)
				result.Sum += v
			}
		}
		wp.resultQueue <- result
	}
}
