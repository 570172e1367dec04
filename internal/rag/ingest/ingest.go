package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/metrics"
	"github.com/kbchat/kbchat/internal/rag/chunker"
	"github.com/kbchat/kbchat/internal/rag/extract"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/storage"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// Resolver maps a scope onto its vector index. Keeping it a function lets
// tests hand the pipeline a throwaway index pair.
type Resolver func(scope fileModel.Scope) *index.ScopedIndex

// Pipeline drives one file from stored blob to searchable chunks and owns
// the file's status transitions: NotProcessed -> Processing -> {Processed,
// Error, UnsupportedFormat}. Failures land in the status, never in a
// returned fault; callers poll the FileRecord.
type Pipeline struct {
	resolve Resolver
	files   fileModel.FileStore
	uploads *storage.UploadStore
	locks   *sourceLocks
	logger  *logger_i.Logger
}

func NewPipeline(resolve Resolver, files fileModel.FileStore, uploads *storage.UploadStore) *Pipeline {
	return &Pipeline{
		resolve: resolve,
		files:   files,
		uploads: uploads,
		locks:   newSourceLocks(),
		logger:  logger_i.NewLogger("Ingestion Pipeline"),
	}
}

// Ingest runs the full pipeline for one record and returns the terminal
// status it wrote. Ingestion of the same filename is serialized; if the
// context dies mid-run the record is left in Processing rather than being
// claimed Processed for unfinished work.
func (p *Pipeline) Ingest(ctx context.Context, record fileModel.FileRecord) fileModel.Status {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	lock := p.locks.get(record.Filename)
	lock.Lock()
	defer lock.Unlock()

	log := p.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file", record.Filename, "scope", record.Scope)

	p.setStatus(ctx, record.Uid, fileModel.StatusProcessing, log)

	status := p.run(ctx, record, log)

	if ctx.Err() != nil {
		log.Warn("Ingestion cancelled, leaving record in Processing", "error", ctx.Err())
		return fileModel.StatusProcessing
	}

	p.setStatus(ctx, record.Uid, status, log)
	log.Info("Ingestion finished", "status", status)
	return status
}

func (p *Pipeline) run(ctx context.Context, record fileModel.FileRecord, log *logger_i.Logger) fileModel.Status {
	scopedIndex := p.resolve(record.Scope)
	if scopedIndex == nil {
		log.Error("No index for scope", "scope", record.Scope)
		return fileModel.StatusError
	}

	// wipe whatever an earlier upload of this filename left behind, so
	// re-ingestion never duplicates chunks
	if err := scopedIndex.DeleteBySource(ctx, record.Filename); err != nil {
		log.Error("Clearing stale chunks failed", "error", err)
		return fileModel.StatusError
	}

	segments, err := extract.Extract(p.uploads.PathFor(record.Filename))
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			log.Warn("Unsupported document format", "error", err)
			return fileModel.StatusUnsupportedFormat
		case errors.Is(err, extract.ErrSourceNotFound):
			log.Error("Upload blob missing", "error", err)
			return fileModel.StatusError
		default:
			log.Error("Extraction failed", "error", err)
			return fileModel.StatusError
		}
	}

	chunks := chunker.BuildChunks(segments, record.Filename, record.Scope)
	if len(chunks) == 0 {
		// an empty document is a valid document
		log.Warn("Document produced no chunks")
		return fileModel.StatusProcessed
	}

	if err := scopedIndex.Upsert(ctx, chunks); err != nil {
		log.Error("Indexing chunks failed", "error", err)
		return fileModel.StatusError
	}

	log.Debug("Indexed document", "chunks", len(chunks))
	return fileModel.StatusProcessed
}

func (p *Pipeline) setStatus(ctx context.Context, uid string, status fileModel.Status, log *logger_i.Logger) {
	if err := p.files.UpdateStatus(ctx, uid, status); err != nil {
		log.Error("Failed to write file status", "status", status, "error", err)
	}
}
