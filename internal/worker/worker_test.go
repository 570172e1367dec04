package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// MockRunner tracks how many ingestions the pool executed
type MockRunner struct {
	ProcessedCount int32
	OnIngest       func(ctx context.Context, record fileModel.FileRecord) fileModel.Status
}

func (m *MockRunner) Ingest(ctx context.Context, record fileModel.FileRecord) fileModel.Status {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnIngest != nil {
		return m.OnIngest(ctx, record)
	}
	return fileModel.StatusProcessed
}

func TestWorkerPool_Flow(t *testing.T) {
	mockRunner := &MockRunner{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(mockRunner)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		dispatcherChannel <- true

		// Give it a millisecond to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes an enqueued file", func(t *testing.T) {
		Enqueue(fileModel.FileRecord{Uid: "test-1", Filename: "test.txt"}, "trace-1")

		// Wait for worker to pick up and process
		time.Sleep(50 * time.Millisecond)

		processed := atomic.LoadInt32(&mockRunner.ProcessedCount)
		if processed != 1 {
			t.Errorf("Expected 1 file processed, got %d", processed)
		}
	})

	t.Run("Task context carries the trace id", func(t *testing.T) {
		traceSeen := make(chan string, 1)
		mockRunner.OnIngest = func(ctx context.Context, record fileModel.FileRecord) fileModel.Status {
			traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
			traceSeen <- traceId
			return fileModel.StatusProcessed
		}
		Enqueue(fileModel.FileRecord{Uid: "test-2", Filename: "traced.txt"}, "trace-2")

		select {
		case traceId := <-traceSeen:
			if traceId != "trace-2" {
				t.Errorf("Expected trace-2, got %q", traceId)
			}
		case <-time.After(time.Second):
			t.Error("Ingestion never ran")
		}
		mockRunner.OnIngest = nil
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("idle timeout test waits out config.IdleWorkerTimeout")
	}

	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 2)
	logger = logger_i.NewLogger("TestWorkerPool")
	InitServices(&MockRunner{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	// Spawn 1 worker manually
	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Assertion Failed: Worker should have timed out and retired, but count is %d", count)
	}
}
