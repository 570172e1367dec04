package lifecycle

import (
	"context"
	"strings"
	"testing"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/store"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/rag/ingest"
	"github.com/kbchat/kbchat/internal/rag/vectorDB/memory"
	"github.com/kbchat/kbchat/internal/storage"
)

type stubEmbedder struct{}

func fakeVector(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%13) + 1
	}
	return v
}

func (stubEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return fakeVector(query), nil
}

func (stubEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = fakeVector(c)
	}
	return vectors, nil
}

func newTestManager(t *testing.T) (*Manager, *ingest.Pipeline, *store.InMemoryFileStore, *storage.UploadStore, *index.ScopedIndex) {
	t.Helper()
	ctx := context.Background()

	scopedIndex, err := index.NewScopedIndex(ctx, fileModel.ScopePublic,
		config.PublicCollection, config.PublicAnswerCacheName, memory.NewStore(), stubEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	resolve := func(scope fileModel.Scope) *index.ScopedIndex { return scopedIndex }

	files := store.InitInMemoryFileStore()
	uploads, err := storage.NewUploadStore(t.TempDir(), "uploads")
	if err != nil {
		t.Fatal(err)
	}

	manager := NewManager(resolve, files, uploads)
	pipeline := ingest.NewPipeline(resolve, files, uploads)
	return manager, pipeline, files, uploads, scopedIndex
}

func TestDeleteFile_RemovesEveryTrace(t *testing.T) {
	manager, pipeline, files, uploads, scopedIndex := newTestManager(t)
	ctx := context.Background()

	record := fileModel.FileRecord{Uid: "uid-1", Filename: "policy.txt", Scope: fileModel.ScopePublic}
	if _, err := uploads.Save(record.Filename, strings.NewReader("Refunds within 30 days.")); err != nil {
		t.Fatal(err)
	}
	if err := files.SaveFile(ctx, record); err != nil {
		t.Fatal(err)
	}
	if status := pipeline.Ingest(ctx, record); status != fileModel.StatusProcessed {
		t.Fatalf("Ingest failed with %s", status)
	}

	report := manager.DeleteFile(ctx, record)
	if report.Failed() {
		t.Fatalf("Delete reported failures: %+v", report)
	}

	matches, err := scopedIndex.Search(ctx, "refunds", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("Chunks still searchable after delete: %d", len(matches))
	}
	if uploads.Exists(record.Filename) {
		t.Error("Blob still present after delete")
	}
	if _, found := files.GetFile(ctx, record.Uid); found {
		t.Error("Record still present after delete")
	}
}

func TestDeleteFile_Idempotent(t *testing.T) {
	manager, _, files, uploads, _ := newTestManager(t)
	ctx := context.Background()

	record := fileModel.FileRecord{Uid: "uid-2", Filename: "notes.txt", Scope: fileModel.ScopePublic}
	if _, err := uploads.Save(record.Filename, strings.NewReader("a note")); err != nil {
		t.Fatal(err)
	}
	if err := files.SaveFile(ctx, record); err != nil {
		t.Fatal(err)
	}

	if report := manager.DeleteFile(ctx, record); report.Failed() {
		t.Fatalf("First delete failed: %+v", report)
	}
	if report := manager.DeleteFile(ctx, record); report.Failed() {
		t.Errorf("Second delete must be a no-op, got %+v", report)
	}
}

func TestDeleteFile_NeverIngested(t *testing.T) {
	manager, _, files, _, _ := newTestManager(t)
	ctx := context.Background()

	// record exists but no blob was ever written and nothing was indexed
	record := fileModel.FileRecord{Uid: "uid-3", Filename: "ghost.txt", Scope: fileModel.ScopePublic}
	if err := files.SaveFile(ctx, record); err != nil {
		t.Fatal(err)
	}

	if report := manager.DeleteFile(ctx, record); report.Failed() {
		t.Errorf("Deleting a never-ingested file must succeed, got %+v", report)
	}
	if _, found := files.GetFile(ctx, record.Uid); found {
		t.Error("Record still present after delete")
	}
}
