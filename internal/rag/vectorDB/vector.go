package vectorDB

import (
	"context"

	"github.com/kbchat/kbchat/internal/domain/docModel"
)

// PointStore is the raw vector storage underneath a ScopedIndex. Every method
// takes the collection name so the two scope indexes can share one client
// while staying fully partitioned.
type PointStore interface {
	EnsureCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, collectionName string, chunks []docModel.Chunk, vectors [][]float32) error
	DeleteBySource(ctx context.Context, collectionName string, source string) error
	Query(ctx context.Context, collectionName string, vector []float32, k int) ([]docModel.ScoredChunk, error)

	// semantic answer cache
	GetCachedAnswer(ctx context.Context, cacheCollection string, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, cacheCollection string, id string, vector []float32, answer string) error
}
