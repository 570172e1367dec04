package lifecycle

import (
	"context"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/rag/ingest"
	"github.com/kbchat/kbchat/internal/storage"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// DeleteReport captures the outcome of each removal step. Steps run
// best-effort; one failing never stops the next.
type DeleteReport struct {
	IndexErr  error
	BlobErr   error
	RecordErr error
}

// Failed reports whether any step of the removal went wrong.
func (r DeleteReport) Failed() bool {
	return r.IndexErr != nil || r.BlobErr != nil || r.RecordErr != nil
}

// Manager removes every trace of a file: its index chunks, its stored blob
// and its record, in that order.
type Manager struct {
	resolve ingest.Resolver
	files   fileModel.FileStore
	uploads *storage.UploadStore
	logger  *logger_i.Logger
}

func NewManager(resolve ingest.Resolver, files fileModel.FileStore, uploads *storage.UploadStore) *Manager {
	return &Manager{
		resolve: resolve,
		files:   files,
		uploads: uploads,
		logger:  logger_i.NewLogger("File Lifecycle"),
	}
}

// DeleteFile tears a file down across all three stores. Vectors go first so
// a half-finished delete can never leave searchable chunks for a file whose
// record is already gone. Deleting the same file twice is not an error.
func (m *Manager) DeleteFile(ctx context.Context, record fileModel.FileRecord) DeleteReport {
	log := m.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file", record.Filename, "uid", record.Uid)

	var report DeleteReport

	if scopedIndex := m.resolve(record.Scope); scopedIndex != nil {
		report.IndexErr = scopedIndex.DeleteBySource(ctx, record.Filename)
	} else {
		report.IndexErr = index.ErrIndex
	}
	if report.IndexErr != nil {
		log.Error("Deleting index chunks failed", "error", report.IndexErr)
	}

	if report.BlobErr = m.uploads.Remove(record.Filename); report.BlobErr != nil {
		log.Error("Deleting upload blob failed", "error", report.BlobErr)
	}

	if report.RecordErr = m.files.DeleteFile(ctx, record.Uid); report.RecordErr != nil {
		log.Error("Deleting file record failed", "error", report.RecordErr)
	}

	if report.Failed() {
		log.Warn("File removal finished with failures")
	} else {
		log.Info("File removed")
	}
	return report
}
