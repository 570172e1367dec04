package fileModel

import (
	"context"
	"strings"
	"time"
)

type Scope string

// Status is the closed set of processing states a file moves through.
// Transitions: NotProcessed -> Processing -> {Processed, Error, UnsupportedFormat}.
type Status string

const (
	ScopePublic  Scope = "Public"
	ScopePrivate Scope = "Private"

	StatusNotProcessed      Status = "Not Processed"
	StatusProcessing        Status = "Processing"
	StatusProcessed         Status = "Processed"
	StatusError             Status = "Error"
	StatusUnsupportedFormat Status = "Unsupported Format"
)

func ParseScope(s string) (Scope, bool) {
	switch strings.ToLower(s) {
	case "public":
		return ScopePublic, true
	case "private":
		return ScopePrivate, true
	}
	return "", false
}

// FileRecord is the relational record for one uploaded document. The blob on
// disk and the chunks in the vector index are derived state keyed by Filename.
type FileRecord struct {
	Uid        string    `json:"uid"`
	Filename   string    `json:"filename"`
	UserUid    string    `json:"user_uid,omitempty"` //empty for public uploads without an owner
	Scope      Scope     `json:"information_type"`
	Status     Status    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type FileStore interface {
	SaveFile(ctx context.Context, record FileRecord) error
	GetFile(ctx context.Context, uid string) (FileRecord, bool)
	FindByName(ctx context.Context, filename string, scope Scope) (FileRecord, bool)
	ListFiles(ctx context.Context, userUid string) ([]FileRecord, error)
	UpdateStatus(ctx context.Context, uid string, status Status) error
	DeleteFile(ctx context.Context, uid string) error
}
