package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for council analysis.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Chatter abstracts multi-turn providers for the assistant.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// CompletionRequest captures a single prompt exchange.
type CompletionRequest struct {
	System    string
	User      string
	MaxTokens int64
}

// Message roles on the wire. Only user and assistant turns are sent;
// system text travels separately.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatRequest captures a multi-turn exchange. Messages must end with a
// user turn.
type ChatRequest struct {
	System    string
	Messages  []Message
	MaxTokens int64
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}

// Chat returns ErrNotConfigured.
func (PlaceholderClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}
