package chunker

import (
	"strings"

	"github.com/kbchat/kbchat/internal/adapter/utils"
	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
)

// separators ordered from most to least semantic
var separators = []string{"\n\n", "\n", ". ", " "}

// Split windows text into overlapping chunks of roughly limit characters.
// It is a pure function: the same text always yields the same sequence,
// which re-ingestion and the tests both rely on. Empty text yields no
// chunks; text at or under the limit yields exactly one.
func Split(text string, limit int, overlap int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}
	return splitRecursive(text, limit, overlap, separators)
}

// splitRecursive breaks text on the coarsest separator it contains, then
// subdivides any part that alone exceeds the limit with the finer
// separators before merging parts back into windows. A part no separator
// can break gets hard cut.
func splitRecursive(text string, limit int, overlap int, seps []string) []string {
	splitChar := ""
	var finer []string
	found := false
	for i, s := range seps {
		if strings.Contains(text, s) {
			splitChar = s
			finer = seps[i+1:]
			found = true
			break
		}
	}
	if !found {
		return hardCut(text, limit, overlap)
	}

	var parts []string
	for _, part := range strings.Split(text, splitChar) {
		if len(part) > limit {
			parts = append(parts, splitRecursive(part, limit, overlap, finer)...)
			continue
		}
		parts = append(parts, part)
	}

	var chunks []string
	var currentChunk strings.Builder

	for _, part := range parts {
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// seed the next window with the tail of this one
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

// hardCut slices an unbroken run of characters into fixed windows.
func hardCut(text string, limit int, overlap int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	step := limit - overlap
	for start := 0; start < len(text); start += step {
		end := start + limit
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// BuildChunks splits every extracted segment and tags each window with the
// source filename and scope, which is what the vector index keys on.
func BuildChunks(segments []docModel.Segment, source string, scope fileModel.Scope) []docModel.Chunk {
	var allChunks []docModel.Chunk

	for _, segment := range segments {
		windows := Split(segment.Content, config.ChunkSize, config.ChunkOverlap)
		for i, window := range windows {
			allChunks = append(allChunks, docModel.Chunk{
				ChunkId: utils.GetNewUUID(),
				Source:  source,
				Scope:   scope,
				Content: window,
				Page:    segment.Page,
				Order:   i,
			})
		}
	}
	return allChunks
}
