package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/docModel"
)

type point struct {
	chunk  docModel.Chunk
	vector []float32
}

type cacheEntry struct {
	vector []float32
	answer string
}

type collection struct {
	points []point
	cache  map[string]cacheEntry
}

// Store is a brute-force cosine-similarity vector store. It backs unit tests
// and serves as the fallback when qdrant is offline.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
	}
}

func (s *Store) EnsureCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collectionName]; !ok {
		s.collections[collectionName] = &collection{cache: make(map[string]cacheEntry)}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collectionName string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collectionName]
	if !ok {
		return errors.New("unknown collection " + collectionName)
	}
	for i := range chunks {
		col.points = append(col.points, point{chunk: chunks[i], vector: vectors[i]})
	}
	return nil
}

func (s *Store) DeleteBySource(ctx context.Context, collectionName string, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collectionName]
	if !ok {
		return nil //nothing indexed for this collection yet, nothing to delete
	}
	kept := col.points[:0]
	for _, p := range col.points {
		if p.chunk.Source != source {
			kept = append(kept, p)
		}
	}
	col.points = kept
	return nil
}

func (s *Store) Query(ctx context.Context, collectionName string, vector []float32, k int) ([]docModel.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collectionName]
	if !ok || len(col.points) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = config.TopKResults
	}

	scored := make([]docModel.ScoredChunk, 0, len(col.points))
	for _, p := range col.points {
		scored = append(scored, docModel.ScoredChunk{
			Chunk: p.chunk,
			Score: cosine(p.vector, vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *Store) GetCachedAnswer(ctx context.Context, cacheCollection string, queryVector []float32) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[cacheCollection]
	if !ok {
		return "", false, nil
	}
	best := float32(-1)
	answer := ""
	for _, entry := range col.cache {
		if score := cosine(entry.vector, queryVector); score > best {
			best = score
			answer = entry.answer
		}
	}
	if best < config.CacheSimilarityCutoff {
		return "", false, nil
	}
	return answer, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, cacheCollection string, id string, vector []float32, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[cacheCollection]
	if !ok {
		col = &collection{cache: make(map[string]cacheEntry)}
		s.collections[cacheCollection] = col
	}
	col.cache[id] = cacheEntry{vector: vector, answer: answer}
	return nil
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
