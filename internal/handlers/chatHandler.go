package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/kbchat/kbchat/internal/adapter"
	"github.com/kbchat/kbchat/internal/api"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/lifecycle"
	"github.com/kbchat/kbchat/internal/rag/engine"
	"github.com/kbchat/kbchat/internal/storage"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

var (
	handlerInstance *ServiceHandler //private singleton
	once            sync.Once
	logCH           *logger_i.Logger
	logFH           *logger_i.Logger
)

// ServiceHandler bundles everything the HTTP layer reaches for. One engine
// per scope; a request for a scope with no engine is a routing bug.
type ServiceHandler struct {
	files     fileModel.FileStore
	uploads   *storage.UploadStore
	lifecycle *lifecycle.Manager
	engines   map[fileModel.Scope]*engine.Engine
}

func InitHandlers(files fileModel.FileStore, uploads *storage.UploadStore,
	lifecycleManager *lifecycle.Manager, engines map[fileModel.Scope]*engine.Engine) {
	once.Do(func() {
		handlerInstance = &ServiceHandler{
			files:     files,
			uploads:   uploads,
			lifecycle: lifecycleManager,
			engines:   engines,
		}
		logCH = logger_i.NewLogger("ChatHandler")
		logFH = logger_i.NewLogger("FileHandler")
		logCH.Info("Starting handlers")
	})
}

// PublicChatHandler godoc
// @Summary      Ask the public knowledge base
// @Description  Answers a question using only documents ingested into the public scope.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "The question"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Empty message"
// @Router       /chat/public [post]
func PublicChatHandler(w http.ResponseWriter, r *http.Request) {
	answerChat(w, r, fileModel.ScopePublic)
}

// PrivateChatHandler godoc
// @Summary      Ask the private knowledge base
// @Description  Answers a question using only documents ingested into the private scope.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "The question"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Empty message"
// @Router       /chat/private [post]
func PrivateChatHandler(w http.ResponseWriter, r *http.Request) {
	answerChat(w, r, fileModel.ScopePrivate)
}

// PublicChatHistoryHandler godoc
// @Summary      Public conversation history
// @Tags         Chat
// @Produce      json
// @Success      200  {array}  api.ConversationTurnResponse
// @Router       /chat/public/history [get]
func PublicChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	chatHistory(w, r, fileModel.ScopePublic)
}

// PrivateChatHistoryHandler godoc
// @Summary      Private conversation history
// @Tags         Chat
// @Produce      json
// @Success      200  {array}  api.ConversationTurnResponse
// @Router       /chat/private/history [get]
func PrivateChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	chatHistory(w, r, fileModel.ScopePrivate)
}

func answerChat(w http.ResponseWriter, r *http.Request, scope fileModel.Scope) {
	if !validateContext(r.Context()) {
		logCH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	scopedEngine, ok := handlerInstance.engines[scope]
	if !ok {
		logCH.Error("No engine for scope", "scope", scope)
		WriteErrorResponse(w, http.StatusInternalServerError, "scope unavailable")
		return
	}

	var requestData api.ChatRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logCH.Error("Couldn't close the Chat handler reader :", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logCH.Warn("Bad Chat Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	result, err := scopedEngine.Answer(r.Context(), requestData.Message, userUidFrom(r.Context()))
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			WriteErrorResponse(w, http.StatusBadRequest, "message must not be empty")
			return
		}
		logCH.Error("Answering failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(result))
}

func chatHistory(w http.ResponseWriter, r *http.Request, scope fileModel.Scope) {
	if !validateContext(r.Context()) {
		logCH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	scopedEngine, ok := handlerInstance.engines[scope]
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "scope unavailable")
		return
	}

	turns, err := scopedEngine.History(r.Context())
	if err != nil {
		logCH.Error("Loading history failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToConversationResponses(turns))
}
