package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kbchat/kbchat/internal/api"
	"github.com/kbchat/kbchat/internal/config"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logCH.Error("Error encoding response: %v", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Code: httpCode, Message: message})
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logCH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logCH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func traceIdFrom(ctx context.Context) string {
	traceId, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return traceId
}

func userUidFrom(ctx context.Context) string {
	userUid, _ := ctx.Value(config.USER_UID_KEY).(string)
	return userUid
}
