package adapter

import (
	"github.com/kbchat/kbchat/internal/api"
	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/internal/rag/engine"
)

func ToChatResponse(result engine.Result) api.ChatResponse {
	return api.ChatResponse{
		Reply:   result.Answer,
		Sources: toSourceDocuments(result.Sources),
	}
}

func ToFileResponse(record fileModel.FileRecord) api.FileResponse {
	return api.FileResponse{
		Uid:        record.Uid,
		Filename:   record.Filename,
		Scope:      string(record.Scope),
		Status:     string(record.Status),
		UploadedAt: record.UploadedAt,
	}
}

func ToFileResponses(records []fileModel.FileRecord) []api.FileResponse {
	responses := make([]api.FileResponse, len(records))
	for i, record := range records {
		responses[i] = ToFileResponse(record)
	}
	return responses
}

func ToUploadResponse(record fileModel.FileRecord) api.UploadResponse {
	return api.UploadResponse{
		Uid:      record.Uid,
		Filename: record.Filename,
		Status:   string(record.Status),
	}
}

func ToConversationResponses(turns []chatModel.ConversationTurn) []api.ConversationTurnResponse {
	responses := make([]api.ConversationTurnResponse, len(turns))
	for i, turn := range turns {
		responses[i] = api.ConversationTurnResponse{
			Uid:       turn.Uid,
			Question:  turn.Question,
			Answer:    turn.Answer,
			Sources:   toSourceDocuments(turn.Sources),
			CreatedAt: turn.CreatedAt,
		}
	}
	return responses
}

func toSourceDocuments(refs []chatModel.SourceRef) []api.SourceDocument {
	documents := make([]api.SourceDocument, len(refs))
	for i, ref := range refs {
		documents[i] = api.SourceDocument{
			Source:  ref.Source,
			Content: ref.Snippet,
		}
	}
	return documents
}
