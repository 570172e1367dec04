package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"
	USER_UID_KEY   = "userUid"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth - the identity collaborator hands us an already-authorized caller,
	//this token gate only keeps strangers off the admin endpoints
	NoAuthBypass = false
	AuthToken    = "local-dev-token"

	//chunking
	ChunkSize    = 1000 //characters per window
	ChunkOverlap = 100  //characters carried into the next window

	//retrieval
	TopKResults      = 3
	SnippetLength    = 200 //max chars of chunk content echoed back as a source
	FallbackAnswer   = "Sorry, something went wrong while answering your question."
	EmptyIndexAnswer = "I could not find anything relevant in the knowledge base."

	CacheSimilarityCutoff = 0.97

	//vector collections, one pair per scope
	PublicCollection       = "public_documents"
	PrivateCollection      = "private_documents"
	PublicAnswerCacheName  = "public_answer_cache"
	PrivateAnswerCacheName = "private_answer_cache"

	EmbeddingOutputDimensionality int32 = 1536

	//uploads
	UploadDirName     = "uploads"
	MaxUploadBytes    = 32 << 20
	IngestQueueLimit  = 100
	IngestCallTimeout = 60 * time.Second
	AnswerCallTimeout = 30 * time.Second

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout  = 30 * time.Second //multipart uploads need room
	WriteTimeout = 60 * time.Second //chat answers wait on the model

	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//vectorDB
	QdrantHost     = ""
	QdrantGrpcPort = 6334
	QdrantUseTLS   = false
	QdrantPoolSize = 1

	//providers: "google" (default) or "openai"
	AIProvider = "google"

	//empty keys defer to the SDK's own env lookup (GEMINI_API_KEY / OPENAI_API_KEY)
	GoogleAPIKey = ""
	OpenAIAPIKey = ""

	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"

	OpenAIChatModel      = "gpt-4o-mini"
	OpenAIEmbeddingModel = "text-embedding-3-large"

	ModelTemperature float32 = 0.7
	ModelContext             = "You are a helpful assistant answering strictly from the provided document context. If the context does not contain the answer, say you don't know."

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""

	//redis logical databases
	RedisFileStore         = 0
	RedisConversationStore = 1
)
