// @title           Knowledge Base Chat API
// @version         1.0
// @description     Document ingestion and retrieval-augmented chat over public and private knowledge scopes.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/store"
	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/handlers"
	"github.com/kbchat/kbchat/internal/lifecycle"
	"github.com/kbchat/kbchat/internal/mcp"
	"github.com/kbchat/kbchat/internal/rag/embedding"
	"github.com/kbchat/kbchat/internal/rag/embedding/googleEmbedding"
	"github.com/kbchat/kbchat/internal/rag/embedding/openaiEmbedding"
	"github.com/kbchat/kbchat/internal/rag/engine"
	"github.com/kbchat/kbchat/internal/rag/index"
	"github.com/kbchat/kbchat/internal/rag/ingest"
	"github.com/kbchat/kbchat/internal/rag/llm"
	"github.com/kbchat/kbchat/internal/rag/llm/gemini"
	"github.com/kbchat/kbchat/internal/rag/llm/openaiLLM"
	"github.com/kbchat/kbchat/internal/rag/vectorDB"
	"github.com/kbchat/kbchat/internal/rag/vectorDB/memory"
	"github.com/kbchat/kbchat/internal/rag/vectorDB/qdrantDB"
	"github.com/kbchat/kbchat/internal/server"
	"github.com/kbchat/kbchat/internal/storage"
	"github.com/kbchat/kbchat/internal/worker"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

var (
	listenAddr        string
	mcpMode           bool
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.BoolVar(&mcpMode, "mcp", false, "serve the knowledge base over MCP stdio instead of HTTP")
	flag.Parse()

	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//stores, with in-memory fallbacks when redis is offline
	var fileStore fileModel.FileStore
	if redisFiles := store.GetRedisFileStore(serviceContext); redisFiles != nil {
		fileStore = redisFiles
	} else {
		logger.Error("Redis file store is offline, falling back to in-memory")
		fileStore = store.InitInMemoryFileStore()
	}

	var conversationStore chatModel.ConversationStore
	if redisTurns := store.GetRedisConversationStore(serviceContext); redisTurns != nil {
		conversationStore = redisTurns
	} else {
		logger.Error("Redis conversation store is offline, falling back to in-memory")
		conversationStore = store.InitInMemoryConversationStore()
	}

	var pointStore vectorDB.PointStore
	if qdrantClient := qdrantDB.GetQdrantClient(serviceContext); qdrantClient != nil {
		pointStore = qdrantClient
	} else {
		logger.Error("Qdrant is offline, falling back to in-memory vector store")
		pointStore = memory.NewStore()
	}

	var embeddingService embedding.Embedder
	var llmProvider llm.Provider
	switch config.AIProvider {
	case "openai":
		embeddingService = openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, config.OpenAIAPIKey)
		llmProvider = openaiLLM.GetOpenAIClient(config.OpenAIAPIKey, config.OpenAIChatModel)
	default:
		embeddingService = googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleAPIKey)
		llmProvider = gemini.GetGeminiClient(serviceContext, config.GoogleAPIKey, config.GeminiModelName)
	}
	if embeddingService == nil || llmProvider == nil {
		logger.Error("AI provider failed to initialize. Shutting down.",
			"provider", config.AIProvider, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	publicIndex, err := index.NewScopedIndex(serviceContext, fileModel.ScopePublic,
		config.PublicCollection, config.PublicAnswerCacheName, pointStore, embeddingService)
	if err != nil {
		logger.Error("Public index failed to initialize", "error", err)
		return
	}
	privateIndex, err := index.NewScopedIndex(serviceContext, fileModel.ScopePrivate,
		config.PrivateCollection, config.PrivateAnswerCacheName, pointStore, embeddingService)
	if err != nil {
		logger.Error("Private index failed to initialize", "error", err)
		return
	}
	resolve := func(scope fileModel.Scope) *index.ScopedIndex {
		if scope == fileModel.ScopePrivate {
			return privateIndex
		}
		return publicIndex
	}

	root, err := os.Getwd()
	if err != nil {
		logger.Error("Cannot resolve working directory", "error", err)
		return
	}
	uploads, err := storage.NewUploadStore(root, config.UploadDirName)
	if err != nil {
		logger.Error("Upload store failed to initialize", "error", err)
		return
	}

	pipeline := ingest.NewPipeline(resolve, fileStore, uploads)
	lifecycleManager := lifecycle.NewManager(resolve, fileStore, uploads)

	engines := map[fileModel.Scope]*engine.Engine{
		fileModel.ScopePublic:  engine.NewEngine(fileModel.ScopePublic, publicIndex, llmProvider, conversationStore),
		fileModel.ScopePrivate: engine.NewEngine(fileModel.ScopePrivate, privateIndex, llmProvider, conversationStore),
	}

	if mcpMode {
		runMCP(serviceContext, logger, engines, publicIndex, privateIndex)
		return
	}

	handlers.InitHandlers(fileStore, uploads, lifecycleManager, engines)

	//init worker pool
	worker.InitServices(pipeline)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func runMCP(ctx context.Context, logger *logger_i.Logger,
	engines map[fileModel.Scope]*engine.Engine, publicIndex *index.ScopedIndex, privateIndex *index.ScopedIndex) {

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:    "kbchat",
		Version: "1.0.0",
		Engines: engines,
		Indexes: map[fileModel.Scope]*index.ScopedIndex{
			fileModel.ScopePublic:  publicIndex,
			fileModel.ScopePrivate: privateIndex,
		},
	})
	if err != nil {
		logger.Error("MCP server failed to initialize", "error", err)
		return
	}
	if err := mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		logger.Error("MCP server stopped", "error", err)
	}
}
