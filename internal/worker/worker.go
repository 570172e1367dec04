package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/metrics"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// Runner is whatever executes one ingestion; in production that is the
// ingest.Pipeline.
type Runner interface {
	Ingest(ctx context.Context, record fileModel.FileRecord) fileModel.Status
}

type ingestTask struct {
	record  fileModel.FileRecord
	traceId string
}

var (
	runner             Runner
	taskChannel        chan ingestTask
	dispatcherChannel  chan bool
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	currentWorkerCount int64
	requestCount       int64
	logger             *logger_i.Logger
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(ingestRunner Runner) {
	runner = ingestRunner
	taskChannel = make(chan ingestTask, config.IngestQueueLimit)
	dispatcherChannel = make(chan bool, config.MaxWorkerCount)
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

// Enqueue hands a file to the pool. The send blocks once the queue is full
// so a flood of uploads backpressures at the API instead of piling up in
// memory. Every ingestion also nudges the dispatcher; document processing is
// slow enough that an extra worker usually pays for itself.
func Enqueue(record fileModel.FileRecord, traceId string) {
	metrics.IncrementIngestQueue()
	taskChannel <- ingestTask{record: record, traceId: traceId}

	accurateCount := atomic.AddInt64(&requestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || atomic.LoadInt64(&currentWorkerCount) == 0 {
		metrics.StartDispatcherSignalCount()
		dispatcherChannel <- true
	}
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "WorkerCount :", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case task := <-taskChannel:
			executeTask(task)
			metrics.DecrementIngestQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// idle for too long, retire unless we are the floor
			if atomic.LoadInt64(&minWorkerCount) > 1 || atomic.LoadInt64(&currentWorkerCount) > 1 {
				removeWorker("Idle worker timeout - Removed worker")
				return
			}
		}
	}
}
