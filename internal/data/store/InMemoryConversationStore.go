package store

import (
	"context"
	"sync"

	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
)

type InMemoryConversationStore struct {
	mu    sync.RWMutex
	turns map[fileModel.Scope][]chatModel.ConversationTurn
}

func InitInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		turns: make(map[fileModel.Scope][]chatModel.ConversationTurn),
	}
}

func (s *InMemoryConversationStore) AppendTurn(ctx context.Context, turn chatModel.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.Scope] = append(s.turns[turn.Scope], turn)
	return nil
}

func (s *InMemoryConversationStore) ListTurns(ctx context.Context, scope fileModel.Scope) ([]chatModel.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chatModel.ConversationTurn, len(s.turns[scope]))
	copy(out, s.turns[scope])
	return out, nil
}
