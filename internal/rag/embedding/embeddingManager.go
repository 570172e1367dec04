package embedding

import "context"

// Embedder is the opaque "text in, vector out" capability. GetEmbedding
// serves query-time lookups, BatchEmbedding serves ingestion; the huge flag
// routes very large documents through the provider's offline batch API.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
}
