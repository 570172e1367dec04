package middleware

import (
	"net/http"
	"strconv"

	"github.com/kbchat/kbchat/internal/handlers"
	"github.com/kbchat/kbchat/internal/metrics"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var GetHandler = Wrap(handlers.GetHandler)

var UploadFileHandler = Wrap(handlers.UploadFileHandler)
var ListFilesHandler = Wrap(handlers.ListFilesHandler)
var GetFileHandler = Wrap(handlers.GetFileHandler)
var DeleteFileHandler = Wrap(handlers.DeleteFileHandler)

var PublicChatHandler = Wrap(handlers.PublicChatHandler)
var PrivateChatHandler = Wrap(handlers.PrivateChatHandler)
var PublicChatHistoryHandler = Wrap(handlers.PublicChatHistoryHandler)
var PrivateChatHistoryHandler = Wrap(handlers.PrivateChatHistoryHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if re.badRequest.isBadRequest {
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")
	re = injectTrace(re)
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		handleBadRequest(re)
		return re //stop if auth fails
	}
	re = rateLimiter(re)
	if re.badRequest.isBadRequest {
		handleBadRequest(re)
		return re //stop here if rate limit fails
	}

	return re
}
