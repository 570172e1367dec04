package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/rag/llm"
	"github.com/kbchat/kbchat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		//an empty key defers to the SDK's OPENAI_API_KEY lookup
		var opts []option.RequestOption
		if apikey != "" {
			opts = append(opts, option.WithAPIKey(apikey))
		}
		openaiClient = &llmClient{
			client:    openai.NewClient(opts...),
			modelName: modelName,
		}
		logger.Info("OpenAI chat client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return &llmClient{client: openaiClient.client, modelName: openaiClient.modelName}
}

func (c *llmClient) Generate(ctx context.Context, question string, contextChunks []string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	userPrompt := fmt.Sprintf("Context:\n%s\n\nUser Question: %s",
		strings.Join(contextChunks, "\n"), question)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.ModelContext),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		log.Error("OpenAI generation failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty generation result")
	}
	return resp.Choices[0].Message.Content, nil
}
