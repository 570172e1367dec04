package api

import "time"

type SourceDocument struct {
	Source  string `json:"source" example:"refund_policy.pdf"`
	Content string `json:"content" example:"Refunds are processed within 30 days..."`
}

type ChatResponse struct {
	Reply   string           `json:"reply"`
	Sources []SourceDocument `json:"sources"`
}

type FileResponse struct {
	Uid        string    `json:"uid" example:"9f3b2c1d"`
	Filename   string    `json:"filename" example:"refund_policy.pdf"`
	Scope      string    `json:"scope" example:"public"`
	Status     string    `json:"status" example:"Processed"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type UploadResponse struct {
	Uid      string `json:"uid"`
	Filename string `json:"filename"`
	Status   string `json:"status" example:"Not Processed"`
}

type ConversationTurnResponse struct {
	Uid       string           `json:"uid"`
	Question  string           `json:"query"`
	Answer    string           `json:"answer"`
	Sources   []SourceDocument `json:"sources,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"file not found"`
}

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}
