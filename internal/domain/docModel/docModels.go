package docModel

import "github.com/kbchat/kbchat/internal/domain/fileModel"

// Segment is one extracted slice of a document, typically a page.
type Segment struct {
	Page    int
	Content string
}

// Chunk is a windowed slice of extracted text plus the metadata the vector
// index needs to key it. Source is the filename, the join key between the
// FileRecord, the blob on disk and the index entries.
type Chunk struct {
	ChunkId string          `json:"chunk_id"`
	Source  string          `json:"source"`
	Scope   fileModel.Scope `json:"scope"`
	Content string          `json:"content"`
	Page    int             `json:"page_num"`
	Order   int             `json:"chunk_order"`
}

// ScoredChunk is a chunk as returned by similarity search.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}
