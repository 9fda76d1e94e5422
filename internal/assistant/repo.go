package assistant

import (
	"context"
	"time"
)

// Repo persists conversations and their messages. Deleting a
// conversation removes its messages.
type Repo interface {
	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, userID, convID string) (Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	TouchConversation(ctx context.Context, convID string, at time.Time) error
	DeleteConversation(ctx context.Context, userID, convID string) error
	DeleteAllConversations(ctx context.Context, userID string) error

	AddMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, convID string) ([]Message, error)
}
