package chatModel

import (
	"context"
	"time"

	"github.com/kbchat/kbchat/internal/domain/fileModel"
)

// SourceRef points a generated answer back at the document it was grounded on.
// Snippet is a bounded slice of the chunk content, never the full chunk.
type SourceRef struct {
	Source  string `json:"source"`
	Snippet string `json:"content"`
}

// ConversationTurn is the append-only audit record of one question/answer
// exchange. It is written once after generation succeeds and never mutated.
type ConversationTurn struct {
	Uid       string          `json:"uid"`
	UserUid   string          `json:"user_uid,omitempty"`
	Scope     fileModel.Scope `json:"conversation_type"`
	Question  string          `json:"query"`
	Answer    string          `json:"answer"`
	Sources   []SourceRef     `json:"sources,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ConversationStore interface {
	AppendTurn(ctx context.Context, turn ConversationTurn) error
	ListTurns(ctx context.Context, scope fileModel.Scope) ([]ConversationTurn, error)
}
