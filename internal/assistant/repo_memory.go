package assistant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured
// and in tests.
type MemoryRepo struct {
	mu            sync.Mutex
	conversations map[string]Conversation
	messages      map[string][]Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
	}
}

func (r *MemoryRepo) CreateConversation(ctx context.Context, conv Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = conv
	return nil
}

func (r *MemoryRepo) GetConversation(ctx context.Context, userID, convID string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[convID]
	if !ok || conv.UserID != userID {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

func (r *MemoryRepo) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	r.mu.Lock()
	var out []Conversation
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) TouchConversation(ctx context.Context, convID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[convID]
	if !ok {
		return ErrNotFound
	}
	conv.UpdatedAt = at
	r.conversations[convID] = conv
	return nil
}

func (r *MemoryRepo) DeleteConversation(ctx context.Context, userID, convID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[convID]
	if !ok || conv.UserID != userID {
		return ErrNotFound
	}
	delete(r.conversations, convID)
	delete(r.messages, convID)
	return nil
}

func (r *MemoryRepo) DeleteAllConversations(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conv := range r.conversations {
		if conv.UserID == userID {
			delete(r.conversations, id)
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *MemoryRepo) AddMessage(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, convID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[convID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
