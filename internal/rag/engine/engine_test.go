package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/store"
	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/rag/vectorDB/memory"
)

type mockEmbedder struct {
	onGetEmbedding func(ctx context.Context, query string) ([]float32, error)
}

func fakeVector(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		v[i%8] += float32(r%13) + 1
	}
	return v
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.onGetEmbedding != nil {
		return m.onGetEmbedding(ctx, query)
	}
	return fakeVector(query), nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = fakeVector(c)
	}
	return vectors, nil
}

type mockProvider struct {
	onGenerate func(ctx context.Context, question string, contextChunks []string) (string, error)
	calls      int64
}

func (m *mockProvider) Generate(ctx context.Context, question string, contextChunks []string) (string, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.onGenerate != nil {
		return m.onGenerate(ctx, question, contextChunks)
	}
	return "generated answer", nil
}

func newTestEngine(t *testing.T, embedder *mockEmbedder, provider *mockProvider) (*Engine, *index.ScopedIndex, *store.InMemoryConversationStore) {
	t.Helper()
	scopedIndex, err := index.NewScopedIndex(context.Background(), fileModel.ScopePublic,
		config.PublicCollection, config.PublicAnswerCacheName, memory.NewStore(), embedder)
	if err != nil {
		t.Fatal(err)
	}
	turns := store.InitInMemoryConversationStore()
	return NewEngine(fileModel.ScopePublic, scopedIndex, provider, turns), scopedIndex, turns
}

func indexChunk(t *testing.T, scopedIndex *index.ScopedIndex, source string, content string) {
	t.Helper()
	err := scopedIndex.Upsert(context.Background(), []docModel.Chunk{{
		ChunkId: "chunk-" + source,
		Source:  source,
		Scope:   fileModel.ScopePublic,
		Content: content,
	}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAnswer_BlankQuestionRejected(t *testing.T) {
	provider := &mockProvider{}
	engine, _, turns := newTestEngine(t, &mockEmbedder{}, provider)

	for _, question := range []string{"", "   ", "\t\n"} {
		_, err := engine.Answer(context.Background(), question, "user-1")
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Question %q: got %v, want ErrInvalidInput", question, err)
		}
	}
	if atomic.LoadInt64(&provider.calls) != 0 {
		t.Error("Rejected input must not reach the model")
	}
	history, _ := turns.ListTurns(context.Background(), fileModel.ScopePublic)
	if len(history) != 0 {
		t.Errorf("Rejected input must not be recorded, got %d turns", len(history))
	}
}

func TestAnswer_GroundedInIndexedDocument(t *testing.T) {
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, question string, contextChunks []string) (string, error) {
			for _, chunk := range contextChunks {
				if strings.Contains(chunk, "30 days") {
					return "Refunds take 30 days.", nil
				}
			}
			return "I could not tell.", nil
		},
	}
	engine, scopedIndex, turns := newTestEngine(t, &mockEmbedder{}, provider)
	indexChunk(t, scopedIndex, "policy.txt", "Refunds are processed within 30 days of the request.")

	result, err := engine.Answer(context.Background(), "How long do refunds take?", "user-1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !strings.Contains(result.Answer, "30 days") {
		t.Errorf("Answer not grounded in the indexed document: %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0].Source != "policy.txt" {
		t.Fatalf("Sources got %+v, want policy.txt", result.Sources)
	}

	history, _ := turns.ListTurns(context.Background(), fileModel.ScopePublic)
	if len(history) != 1 {
		t.Fatalf("Expected 1 recorded turn, got %d", len(history))
	}
	if history[0].Question != "How long do refunds take?" || history[0].Answer != result.Answer {
		t.Errorf("Recorded turn mismatch: %+v", history[0])
	}
	if history[0].UserUid != "user-1" {
		t.Errorf("Turn user got %q, want user-1", history[0].UserUid)
	}
}

func TestAnswer_GenerationFaultDegrades(t *testing.T) {
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, question string, contextChunks []string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	engine, scopedIndex, turns := newTestEngine(t, &mockEmbedder{}, provider)
	indexChunk(t, scopedIndex, "policy.txt", "Refunds are processed within 30 days.")

	result, err := engine.Answer(context.Background(), "How long do refunds take?", "user-1")
	if err != nil {
		t.Fatalf("Degraded path must not return an error, got %v", err)
	}
	if result.Answer != config.FallbackAnswer {
		t.Errorf("Answer got %q, want the fallback", result.Answer)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("Degraded sources must be empty, got %+v", result.Sources)
	}
	history, _ := turns.ListTurns(context.Background(), fileModel.ScopePublic)
	if len(history) != 0 {
		t.Errorf("Degraded exchange must not be recorded, got %d turns", len(history))
	}
}

func TestAnswer_EmbeddingFaultDegrades(t *testing.T) {
	embedder := &mockEmbedder{
		onGetEmbedding: func(ctx context.Context, query string) ([]float32, error) {
			return nil, errors.New("quota exhausted")
		},
	}
	provider := &mockProvider{}
	engine, _, _ := newTestEngine(t, embedder, provider)

	result, err := engine.Answer(context.Background(), "anything", "user-1")
	if err != nil {
		t.Fatalf("Degraded path must not return an error, got %v", err)
	}
	if result.Answer != config.FallbackAnswer {
		t.Errorf("Answer got %q, want the fallback", result.Answer)
	}
	if atomic.LoadInt64(&provider.calls) != 0 {
		t.Error("Generation must not run after an embedding fault")
	}
}

func TestAnswer_EmptyIndex(t *testing.T) {
	provider := &mockProvider{}
	engine, _, turns := newTestEngine(t, &mockEmbedder{}, provider)

	result, err := engine.Answer(context.Background(), "is anyone there?", "user-1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if result.Answer != config.EmptyIndexAnswer {
		t.Errorf("Answer got %q, want the empty-index answer", result.Answer)
	}
	if atomic.LoadInt64(&provider.calls) != 0 {
		t.Error("Generation must not run against an empty index")
	}
	history, _ := turns.ListTurns(context.Background(), fileModel.ScopePublic)
	if len(history) != 1 {
		t.Errorf("Empty-index exchange should still be recorded, got %d turns", len(history))
	}
}

func TestAnswer_SemanticCacheHit(t *testing.T) {
	provider := &mockProvider{}
	engine, scopedIndex, _ := newTestEngine(t, &mockEmbedder{}, provider)
	indexChunk(t, scopedIndex, "policy.txt", "Refunds are processed within 30 days.")

	question := "How long do refunds take?"
	if err := scopedIndex.SaveAnswer(context.Background(), "cached-1", fakeVector(question), "Refunds take 30 days."); err != nil {
		t.Fatal(err)
	}

	result, err := engine.Answer(context.Background(), question, "user-1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if result.Answer != "Refunds take 30 days." {
		t.Errorf("Answer got %q, want the cached answer", result.Answer)
	}
	if atomic.LoadInt64(&provider.calls) != 0 {
		t.Error("Cache hit must not reach the model")
	}
}

func TestAnswer_SnippetBounded(t *testing.T) {
	provider := &mockProvider{}
	engine, scopedIndex, _ := newTestEngine(t, &mockEmbedder{}, provider)
	long := strings.Repeat("refund policy detail ", 40) // well past the snippet limit
	indexChunk(t, scopedIndex, "long.txt", long)

	result, err := engine.Answer(context.Background(), "refund policy", "user-1")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(result.Sources))
	}
	snippet := result.Sources[0].Snippet
	if utf8.RuneCountInString(snippet) != config.SnippetLength {
		t.Errorf("Snippet length got %d, want %d", utf8.RuneCountInString(snippet), config.SnippetLength)
	}
	if !strings.HasPrefix(long, snippet) {
		t.Error("Snippet is not a prefix of the chunk content")
	}
}
