package store

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
)

var errUnknownChat = errors.New("invalid chat id")

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]commonModels.ConversationTurn
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]commonModels.ConversationTurn),
	}
}

func (store *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[chatId]
	return ok
}

func (store *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = make([]commonModels.ConversationTurn, 0)
	return nil
}

func (store *InMemoryMessageStore) AppendTurns(ctx context.Context, id string, turns ...commonModels.ConversationTurn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	if _, ok := store.chatMap[id]; !ok {
		return errUnknownChat
	}
	store.chatMap[id] = append(store.chatMap[id], turns...)
	return nil
}

func (store *InMemoryMessageStore) GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	history, ok := store.chatMap[chatId]
	if !ok {
		return nil, errUnknownChat
	}
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	// callers may append to what they get back
	out := make([]commonModels.ConversationTurn, len(history))
	copy(out, history)
	return out, nil
}
