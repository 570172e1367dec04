package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kbchat/kbchat/internal/adapter/utils"
	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/docModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/metrics"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/rag/llm"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// ErrInvalidInput rejects a blank question before any retrieval work runs.
var ErrInvalidInput = errors.New("question must not be empty")

// Result is what a caller gets back for one question. A degraded Result
// carries the fallback text and an empty (non-nil) source list.
type Result struct {
	Answer  string
	Sources []chatModel.SourceRef
}

// Engine answers questions against a single scope's index. Retrieval and
// generation faults degrade into a canned answer instead of surfacing; only
// input validation returns an error.
type Engine struct {
	scope    fileModel.Scope
	index    *index.ScopedIndex
	provider llm.Provider
	turns    chatModel.ConversationStore
	logger   *logger_i.Logger
}

func NewEngine(scope fileModel.Scope, scopedIndex *index.ScopedIndex, provider llm.Provider, turns chatModel.ConversationStore) *Engine {
	return &Engine{
		scope:    scope,
		index:    scopedIndex,
		provider: provider,
		turns:    turns,
		logger:   logger_i.NewLogger("Query Engine " + string(scope)),
	}
}

// Answer runs the full flow: embed the question, check the semantic answer
// cache, retrieve the top chunks, generate, then record the exchange. Every
// fault past validation degrades to config.FallbackAnswer with no sources
// and no conversation record.
func (e *Engine) Answer(ctx context.Context, question string, userUid string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, ErrInvalidInput
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("answer_generation", time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, config.AnswerCallTimeout)
	defer cancel()

	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	queryVector, err := e.index.EmbedQuery(ctx, question)
	if err != nil {
		log.Error("Query embedding failed", "error", err)
		return e.degraded(), nil
	}

	if cached, found := e.index.CachedAnswer(ctx, queryVector); found {
		log.Info("Answer served from semantic cache")
		e.recordTurn(ctx, question, cached, nil, userUid, log)
		return Result{Answer: cached, Sources: []chatModel.SourceRef{}}, nil
	}

	matches, err := e.index.SearchVector(ctx, queryVector, config.TopKResults)
	if err != nil {
		log.Error("Vector search failed", "error", err)
		return e.degraded(), nil
	}
	if len(matches) == 0 {
		log.Info("No relevant chunks for question")
		result := Result{Answer: config.EmptyIndexAnswer, Sources: []chatModel.SourceRef{}}
		e.recordTurn(ctx, question, result.Answer, result.Sources, userUid, log)
		return result, nil
	}

	contextChunks := make([]string, len(matches))
	for i, match := range matches {
		contextChunks[i] = match.Content
	}

	answer, err := e.provider.Generate(ctx, question, contextChunks)
	if err != nil {
		log.Error("Answer generation failed", "error", err)
		return e.degraded(), nil
	}

	sources := buildSources(matches)
	e.recordTurn(ctx, question, answer, sources, userUid, log)

	// caching is off the request path; a lost write only costs a future hit
	go func() {
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), config.AnswerCallTimeout)
		defer cacheCancel()
		if err := e.index.SaveAnswer(cacheCtx, utils.GetNewUUID(), queryVector, answer); err != nil {
			log.Warn("Caching answer failed", "error", err)
		}
	}()

	return Result{Answer: answer, Sources: sources}, nil
}

// History returns the scope's recorded exchanges, oldest first.
func (e *Engine) History(ctx context.Context) ([]chatModel.ConversationTurn, error) {
	return e.turns.ListTurns(ctx, e.scope)
}

func (e *Engine) degraded() Result {
	return Result{Answer: config.FallbackAnswer, Sources: []chatModel.SourceRef{}}
}

func (e *Engine) recordTurn(ctx context.Context, question string, answer string, sources []chatModel.SourceRef, userUid string, log *logger_i.Logger) {
	turn := chatModel.ConversationTurn{
		Uid:       utils.GetNewUUID(),
		UserUid:   userUid,
		Scope:     e.scope,
		Question:  question,
		Answer:    answer,
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.turns.AppendTurn(ctx, turn); err != nil {
		log.Error("Recording conversation turn failed", "error", err)
	}
}

func buildSources(matches []docModel.ScoredChunk) []chatModel.SourceRef {
	sources := make([]chatModel.SourceRef, len(matches))
	for i, match := range matches {
		sources[i] = chatModel.SourceRef{
			Source:  match.Source,
			Snippet: truncate(match.Content, config.SnippetLength),
		}
	}
	return sources
}

func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
