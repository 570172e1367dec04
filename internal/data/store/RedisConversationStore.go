package store

import (
	"context"
	"encoding/json"

	"github.com/kbchat/kbchat/internal/config"
	"github.com/kbchat/kbchat/internal/data/redisStore"
	"github.com/kbchat/kbchat/internal/domain/chatModel"
	"github.com/kbchat/kbchat/internal/domain/fileModel"
	"github.com/kbchat/kbchat/pkg/logger_i"
)

const conversationKeyPrefix = "conversations:"

type RedisConversationStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisConversationStore(ctx context.Context) *RedisConversationStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisConversationStore)
	if inner == nil {
		return nil
	}
	return &RedisConversationStore{
		store:  inner,
		logger: logger_i.NewLogger("ConversationStore"),
	}
}

func (s *RedisConversationStore) AppendTurn(ctx context.Context, turn chatModel.ConversationTurn) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "scope", turn.Scope)
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, conversationKeyPrefix+string(turn.Scope), data); err != nil {
		log.Error("Failed to append conversation turn", "error", err)
		return err
	}
	log.Debug("Appended conversation turn")
	return nil
}

func (s *RedisConversationStore) ListTurns(ctx context.Context, scope fileModel.Scope) ([]chatModel.ConversationTurn, error) {
	raw, err := s.store.ListGetAll(ctx, conversationKeyPrefix+string(scope))
	if err != nil {
		return nil, err
	}

	turns := make([]chatModel.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn chatModel.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Error("Corrupt conversation turn", "error", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func TestConversationStore(store *redisStore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  store,
		logger: logger_i.NewLogger("test conversation store"),
	}
}
