package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/embedding"
	"github.com/kbchat/kbchat/internal/rag/vectorDB"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// ErrIndex marks embedding/storage faults below the index so that the
// pipeline and the query engine can catch them and degrade instead of
// crashing the request.
var ErrIndex = errors.New("index failure")

const upsertBatchSize = 100

// hugeDataSetThreshold routes absurdly large documents through the
// provider's offline batch embedding API.
const hugeDataSetThreshold = 1_000_000

// ScopedIndex owns one scope's chunks: it embeds on the way in, searches by
// similarity on the way out, and deletes by source filename. The public and
// private scopes each get their own instance over disjoint collections.
type ScopedIndex struct {
	scope           fileModel.Scope
	collection      string
	cacheCollection string
	store           vectorDB.PointStore
	embedder        embedding.Embedder
	logger          *logger_i.Logger
}

func NewScopedIndex(ctx context.Context, scope fileModel.Scope, collection string, cacheCollection string,
	store vectorDB.PointStore, embedder embedding.Embedder) (*ScopedIndex, error) {

	if err := store.EnsureCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("%w: creating collection %s: %v", ErrIndex, collection, err)
	}
	if err := store.EnsureCollection(ctx, cacheCollection); err != nil {
		return nil, fmt.Errorf("%w: creating cache collection %s: %v", ErrIndex, cacheCollection, err)
	}
	return &ScopedIndex{
		scope:           scope,
		collection:      collection,
		cacheCollection: cacheCollection,
		store:           store,
		embedder:        embedder,
		logger:          logger_i.NewLogger("ScopedIndex " + string(scope)),
	}, nil
}

func (x *ScopedIndex) Scope() fileModel.Scope {
	return x.scope
}

// Upsert embeds and stores all chunks, batched so one oversized document
// can't blow a single embedding call.
func (x *ScopedIndex) Upsert(ctx context.Context, chunks []docModel.Chunk) error {
	isHugeDataSet := len(chunks) > hugeDataSetThreshold

	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		currentBatch := chunks[i:end]

		texts := make([]string, len(currentBatch))
		for j, c := range currentBatch {
			texts[j] = c.Content
		}

		vectors, err := x.embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		if err != nil {
			return fmt.Errorf("%w: embedding batch: %v", ErrIndex, err)
		}
		if err := x.store.Upsert(ctx, x.collection, currentBatch, vectors); err != nil {
			return fmt.Errorf("%w: upserting batch: %v", ErrIndex, err)
		}
	}
	x.logger.Debug("Upserted chunks", "count", len(chunks))
	return nil
}

// DeleteBySource removes every chunk keyed to the filename. Deleting a
// source that was never indexed is a no-op.
func (x *ScopedIndex) DeleteBySource(ctx context.Context, source string) error {
	if err := x.store.DeleteBySource(ctx, x.collection, source); err != nil {
		return fmt.Errorf("%w: deleting source %s: %v", ErrIndex, source, err)
	}
	return nil
}

func (x *ScopedIndex) EmbedQuery(ctx context.Context, question string) ([]float32, error) {
	vector, err := x.embedder.GetEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrIndex, err)
	}
	return vector, nil
}

func (x *ScopedIndex) SearchVector(ctx context.Context, vector []float32, k int) ([]docModel.ScoredChunk, error) {
	matches, err := x.store.Query(ctx, x.collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", ErrIndex, err)
	}
	return matches, nil
}

// Search embeds the question and returns the top-k chunks by similarity. An
// empty index yields an empty result, not an error.
func (x *ScopedIndex) Search(ctx context.Context, question string, k int) ([]docModel.ScoredChunk, error) {
	vector, err := x.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	return x.SearchVector(ctx, vector, k)
}

// CachedAnswer checks the scope's semantic answer cache. Cache faults are
// swallowed: a broken cache must never break a query.
func (x *ScopedIndex) CachedAnswer(ctx context.Context, vector []float32) (string, bool) {
	answer, found, err := x.store.GetCachedAnswer(ctx, x.cacheCollection, vector)
	if err != nil {
		x.logger.Error("Answer cache lookup failed", "error", err)
		return "", false
	}
	return answer, found
}

func (x *ScopedIndex) SaveAnswer(ctx context.Context, id string, vector []float32, answer string) error {
	return x.store.SaveToCache(ctx, x.cacheCollection, id, vector, answer)
}
