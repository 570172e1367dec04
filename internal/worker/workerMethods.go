package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/metrics"
)

func executeTask(task ingestTask) {
	start := time.Now()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, task.traceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestCallTimeout)
	defer cancel()

	logger.Debug("Processing ingestion:", "file:", task.record.Filename)
	status := runner.Ingest(ctx, task.record)

	metrics.CaptureIngestMetrics(string(status), time.Since(start))
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}
