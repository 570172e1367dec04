package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/kbchat/kbchat/internal/adapter"
	"github.com/kbchat/kbchat/internal/adapter/utils"
	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/extract"
	"github.com/kbchat/kbchat/internal/worker"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// UploadFileHandler godoc
// @Summary      Upload a document
// @Description  Receives a file via multipart/form-data, stores it and queues it for ingestion into the requested scope.
// @Tags         Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        document          formData  file    true   "The document to upload"
// @Param        information_type  formData  string  false  "public or private (defaults to public)"
// @Success      202  {object}  api.UploadResponse  "Accepted for ingestion"
// @Failure      400  {object}  api.ErrorResponse   "Missing file or bad scope"
// @Failure      415  {object}  api.ErrorResponse   "Extension not ingestible"
// @Router       /files [post]
func UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logFH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}

	scope := fileModel.ScopePublic
	scopeValue := r.FormValue("information_type")
	if scopeValue == "" {
		scopeValue = r.FormValue("scope")
	}
	if scopeValue != "" {
		parsed, ok := fileModel.ParseScope(scopeValue)
		if !ok {
			WriteErrorResponse(w, http.StatusBadRequest, "scope must be public or private")
			return
		}
		scope = parsed
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	// a file we already know we cannot extract never enters the queue
	if !extract.Supported(fileMetadata.Filename) {
		WriteErrorResponse(w, http.StatusUnsupportedMediaType, "Unsupported document format")
		return
	}

	if _, err := handlerInstance.uploads.Save(fileMetadata.Filename, fileReader); err != nil {
		logFH.Error("Saving upload blob failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}

	record := fileModel.FileRecord{
		Uid:        utils.GetNewUUID(),
		Filename:   filepath.Base(fileMetadata.Filename),
		Scope:      scope,
		Status:     fileModel.StatusNotProcessed,
		UploadedAt: time.Now().UTC(),
	}
	// same filename means same blob and same index source, so a re-upload
	// replaces the existing record instead of duplicating it
	if existing, found := handlerInstance.files.FindByName(r.Context(), record.Filename, scope); found {
		record.Uid = existing.Uid
	}
	if scope == fileModel.ScopePrivate {
		record.UserUid = userUidFrom(r.Context())
	}

	if err := handlerInstance.files.SaveFile(r.Context(), record); err != nil {
		logFH.Error("Saving file record failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}

	worker.Enqueue(record, traceIdFrom(r.Context()))
	logFH.Info("File queued for ingestion", "file", record.Filename, "scope", record.Scope)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToUploadResponse(record))
}

// ListFilesHandler godoc
// @Summary      List uploaded documents
// @Description  Returns every file record visible to the caller, including processing status.
// @Tags         Files
// @Produce      json
// @Success      200  {array}   api.FileResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /files [get]
func ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logFH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	records, err := handlerInstance.files.ListFiles(r.Context(), userUidFrom(r.Context()))
	if err != nil {
		logFH.Error("Listing files failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToFileResponses(records))
}

// GetFileHandler godoc
// @Summary      Get one file record
// @Description  Returns a single file record by uid; used to poll processing status.
// @Tags         Files
// @Produce      json
// @Param        uid  path      string  true  "File UID"
// @Success      200  {object}  api.FileResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /files/{uid} [get]
func GetFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logFH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	uid := utils.GetChiURLParam(r, "uid")
	record, found := handlerInstance.files.GetFile(r.Context(), uid)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "file not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToFileResponse(record))
}

// DeleteFileHandler godoc
// @Summary      Delete a document
// @Description  Removes the file's index chunks, its stored blob and its record.
// @Tags         Files
// @Produce      json
// @Param        uid  path  string  true  "File UID"
// @Success      204  "Deleted"
// @Failure      404  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse  "One or more removal steps failed"
// @Router       /files/{uid} [delete]
func DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logFH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	uid := utils.GetChiURLParam(r, "uid")
	record, found := handlerInstance.files.GetFile(r.Context(), uid)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "file not found")
		return
	}

	if report := handlerInstance.lifecycle.DeleteFile(r.Context(), record); report.Failed() {
		WriteErrorResponse(w, http.StatusInternalServerError, "file removal incomplete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
