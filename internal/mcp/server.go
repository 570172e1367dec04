package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/engine"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

// Server exposes the knowledge base to MCP clients. Same engines and indexes
// the HTTP layer uses, different transport.
type Server struct {
	mcpServer *mcp.Server
	engines   map[fileModel.Scope]*engine.Engine
	indexes   map[fileModel.Scope]*index.ScopedIndex
	logger    *logger_i.Logger
}

type Config struct {
	Name    string
	Version string
	Engines map[fileModel.Scope]*engine.Engine
	Indexes map[fileModel.Scope]*index.ScopedIndex
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if len(cfg.Engines) == 0 || len(cfg.Indexes) == 0 {
		return nil, fmt.Errorf("engines and indexes are required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		engines:   cfg.Engines,
		indexes:   cfg.Indexes,
		logger:    logger_i.NewLogger("MCP Server"),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run blocks serving the MCP protocol on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("MCP server starting")
	return s.mcpServer.Run(ctx, transport)
}

type AskInput struct {
	Question string `json:"question" jsonschema:"The question to answer from the knowledge base"`
	Scope    string `json:"scope,omitempty" jsonschema:"public or private, defaults to public"`
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"The text to search for"`
	Scope string `json:"scope,omitempty" jsonschema:"public or private, defaults to public"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of chunks to return"`
}

func (s *Server) registerTools() error {
	askSchema, err := jsonschema.For[AskInput](nil)
	if err != nil {
		return fmt.Errorf("schema for ask tool: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question using the ingested documents of one knowledge scope. " +
			"Returns the generated answer followed by its source documents.",
		InputSchema: askSchema,
	}, s.Ask)

	searchSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for search tool: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "search",
		Description: "Retrieve the document chunks most similar to a query from one knowledge scope, " +
			"without running answer generation.",
		InputSchema: searchSchema,
	}, s.Search)

	return nil
}

// Ask handles the ask MCP tool call.
func (s *Server) Ask(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	scope, err := parseScope(input.Scope)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	scopedEngine, ok := s.engines[scope]
	if !ok {
		return errorResult(fmt.Sprintf("scope %s is not served", scope)), nil, nil
	}

	result, err := scopedEngine.Answer(ctx, input.Question, "")
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var text strings.Builder
	text.WriteString(result.Answer)
	if len(result.Sources) > 0 {
		text.WriteString("\n\nSources:\n")
		for _, source := range result.Sources {
			fmt.Fprintf(&text, "- %s: %s\n", source.Source, source.Snippet)
		}
	}
	return textResult(text.String()), nil, nil
}

// Search handles the search MCP tool call.
func (s *Server) Search(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	scope, err := parseScope(input.Scope)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query must not be empty"), nil, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = config.TopKResults
	}

	scopedIndex, ok := s.indexes[scope]
	if !ok {
		return errorResult(fmt.Sprintf("scope %s is not served", scope)), nil, nil
	}

	matches, err := scopedIndex.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("search failed: %w", err)
	}
	if len(matches) == 0 {
		return textResult("No matching chunks."), nil, nil
	}

	var text strings.Builder
	for _, match := range matches {
		fmt.Fprintf(&text, "[%s score=%.3f]\n%s\n\n", match.Source, match.Score, match.Content)
	}
	return textResult(text.String()), nil, nil
}

func parseScope(raw string) (fileModel.Scope, error) {
	if raw == "" {
		return fileModel.ScopePublic, nil
	}
	scope, ok := fileModel.ParseScope(raw)
	if !ok {
		return "", fmt.Errorf("scope must be public or private, got %q", raw)
	}
	return scope, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}
