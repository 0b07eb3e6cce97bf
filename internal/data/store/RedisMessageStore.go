package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/data/redisStore"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
)

const chatKeyPrefix = "chat:"

// RedisMessageStore keeps each conversation as a redis list of JSON turns. A new chat holds a
// single empty marker turn so the key exists; readers skip it.
type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context, settings config.RedisSettings) *RedisMessageStore {
	s := redisStore.GetRedisStore(ctx, settings, config.RedisMessageStore)
	if s == nil {
		return nil
	}
	return NewRedisMessageStore(s)
}

func NewRedisMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	isFound, err := s.store.Exists(ctx, chatKeyPrefix+chatId)
	if err != nil {
		logger_i.FromContext(ctx, "MessageStore").Error("Failed to check if chatId exists", "chatId", chatId, "error", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := logger_i.FromContext(ctx, "MessageStore").With("chatId", id)
	log.Debug("Initializing new chat")
	if err := s.store.Del(ctx, chatKeyPrefix+id); err != nil {
		log.Error("Error initializing chat", "error", err)
		return err
	}
	return s.push(ctx, id, commonModels.ConversationTurn{})
}

func (s *RedisMessageStore) AppendTurns(ctx context.Context, id string, turns ...commonModels.ConversationTurn) error {
	if !s.ValidateChatId(ctx, id) {
		return errUnknownChat
	}
	return s.push(ctx, id, turns...)
}

func (s *RedisMessageStore) push(ctx context.Context, id string, turns ...commonModels.ConversationTurn) error {
	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	err := s.store.ListPush(ctx, chatKeyPrefix+id, config.RedisMessageStoreTTL, values...)
	if err != nil {
		logger_i.FromContext(ctx, "MessageStore").Error("error saving chat", "chatId", id, "error", err)
	}
	return err
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error) {
	if !s.ValidateChatId(ctx, chatId) {
		return nil, errUnknownChat
	}
	fetch := limit
	if fetch > 0 {
		// room for the marker turn
		fetch++
	}
	res, err := s.store.ListGetLast(ctx, chatKeyPrefix+chatId, fetch)
	if err != nil {
		logger_i.FromContext(ctx, "MessageStore").Error("Error getting history", "chatId", chatId, "error", err)
		return nil, err
	}

	history := make([]commonModels.ConversationTurn, 0, len(res))
	for _, raw := range res {
		var turn commonModels.ConversationTurn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, err
		}
		if turn.Role == "" {
			continue
		}
		history = append(history, turn)
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history, nil
}
