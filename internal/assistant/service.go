package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"venturesight-backend/internal/council"
	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/llm"
	"venturesight-backend/internal/shared/telemetry"
)

// ThesisProvider supplies the fund's investment thesis as prompt
// context. An empty string means no thesis is configured.
type ThesisProvider interface {
	ProfileText(ctx context.Context, userID string) (string, error)
}

// Service runs the associate chat loop and persists conversations.
type Service struct {
	Repo    Repo
	Decks   *decks.Service
	Council *council.Service
	Thesis  ThesisProvider
	LLM     llm.Chatter

	now func() time.Time
}

const (
	maxToolRounds = 5
	historyWindow = 8
	chatMaxTokens = 2048
	maxTitleRunes = 30
)

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// ChatInput carries one user turn. An empty ConversationID starts a
// new conversation titled after the query.
type ChatInput struct {
	UserID         string
	ConversationID string
	DeckID         string
	Query          string
}

// ChatResult is the associate's reply with its conversation.
type ChatResult struct {
	Conversation Conversation
	Reply        Message
}

// Chat answers one user turn, calling tools as needed, and persists
// both sides of the exchange.
func (s *Service) Chat(ctx context.Context, in ChatInput) (ChatResult, error) {
	if in.UserID == "" {
		return ChatResult{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Query) == "" {
		return ChatResult{}, fmt.Errorf("%w: query required", ErrInvalidInput)
	}
	if s.LLM == nil {
		return ChatResult{}, llm.ErrNotConfigured
	}
	if _, placeholder := s.LLM.(llm.PlaceholderClient); placeholder {
		return ChatResult{}, llm.ErrNotConfigured
	}

	conv, history, err := s.resolveConversation(ctx, in)
	if err != nil {
		return ChatResult{}, err
	}

	now := s.clock()
	if err := s.Repo.AddMessage(ctx, Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           RoleUser,
		Content:        in.Query,
		CreatedAt:      now,
	}); err != nil {
		return ChatResult{}, err
	}

	system, err := s.buildContext(ctx, in, now)
	if err != nil {
		return ChatResult{}, err
	}

	answer, err := s.runLoop(ctx, in.UserID, system, history, in.Query)
	if err != nil {
		return ChatResult{}, err
	}

	reply := Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           RoleAssistant,
		Content:        answer,
		CreatedAt:      s.clock(),
	}
	if err := s.Repo.AddMessage(ctx, reply); err != nil {
		return ChatResult{}, err
	}
	if err := s.Repo.TouchConversation(ctx, conv.ID, reply.CreatedAt); err != nil {
		telemetry.Error("assistant.touch_failed", map[string]any{
			"conversationId": conv.ID,
			"error":          err.Error(),
		})
	}
	conv.UpdatedAt = reply.CreatedAt

	return ChatResult{Conversation: conv, Reply: reply}, nil
}

// Conversations lists the user's conversations, most recent first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListConversations(ctx, userID)
}

// Messages returns the messages of a conversation the user owns.
func (s *Service) Messages(ctx context.Context, userID, convID string) ([]Message, error) {
	if userID == "" || convID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.Repo.GetConversation(ctx, userID, convID); err != nil {
		return nil, err
	}
	return s.Repo.ListMessages(ctx, convID)
}

// DeleteConversation removes one conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, userID, convID string) error {
	if userID == "" || convID == "" {
		return ErrInvalidInput
	}
	return s.Repo.DeleteConversation(ctx, userID, convID)
}

// DeleteAllConversations removes every conversation of the user.
func (s *Service) DeleteAllConversations(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	return s.Repo.DeleteAllConversations(ctx, userID)
}

func (s *Service) resolveConversation(ctx context.Context, in ChatInput) (Conversation, []Message, error) {
	if in.ConversationID == "" {
		now := s.clock()
		conv := Conversation{
			ID:        uuid.NewString(),
			UserID:    in.UserID,
			Title:     titleFromQuery(in.Query),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Repo.CreateConversation(ctx, conv); err != nil {
			return Conversation{}, nil, err
		}
		return conv, nil, nil
	}

	conv, err := s.Repo.GetConversation(ctx, in.UserID, in.ConversationID)
	if err != nil {
		return Conversation{}, nil, err
	}
	history, err := s.Repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return Conversation{}, nil, err
	}
	return conv, history, nil
}

func (s *Service) buildContext(ctx context.Context, in ChatInput, now time.Time) (string, error) {
	thesisText := ""
	if s.Thesis != nil {
		if text, err := s.Thesis.ProfileText(ctx, in.UserID); err == nil {
			thesisText = text
		}
	}

	deckContext := ""
	if in.DeckID != "" {
		deck, err := s.Decks.Get(ctx, in.UserID, in.DeckID)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Selected deck: %s\n", deck.StartupName)
		b.WriteString(truncateContext(deck.RawText, maxDeckContextChars))
		if s.Council != nil {
			if analysis, err := s.Council.Get(ctx, in.UserID, deck.ID); err == nil {
				b.WriteString("\n\n")
				b.WriteString(formatAnalysisContext(analysis))
			}
		}
		deckContext = b.String()
	}

	return buildSystemPrompt(now, thesisText, deckContext), nil
}

func (s *Service) runLoop(ctx context.Context, userID, system string, history []Message, query string) (string, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages := make([]llm.Message, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	for round := 0; round < maxToolRounds; round++ {
		raw, err := s.LLM.Chat(ctx, llm.ChatRequest{
			System:    system,
			Messages:  messages,
			MaxTokens: chatMaxTokens,
		})
		if err != nil {
			return "", err
		}

		call, ok := parseToolCall(raw)
		if !ok {
			return raw, nil
		}

		result := s.executeTool(ctx, userID, call)
		telemetry.Info("assistant.tool", map[string]any{
			"userId": userID,
			"tool":   call.Tool,
		})
		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: raw},
			llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("Tool result (%s):\n%s", call.Tool, result)},
		)
	}

	return "I could not reach a conclusion with the available tools. Try narrowing the question.", nil
}

type toolCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

func parseToolCall(raw string) (toolCall, bool) {
	trimmed := stripFences(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return toolCall{}, false
	}
	var call toolCall
	if err := json.Unmarshal([]byte(trimmed), &call); err != nil || call.Tool == "" {
		return toolCall{}, false
	}
	return call, true
}

func (s *Service) executeTool(ctx context.Context, userID string, call toolCall) string {
	switch call.Tool {
	case "calculate_tam":
		var in TAMInput
		if err := json.Unmarshal(call.Args, &in); err != nil {
			return toolArgError(call.Tool, err)
		}
		return marshalToolResult(ValidateTAM(in))

	case "estimate_sam_som":
		var in SAMSOMInput
		if err := json.Unmarshal(call.Args, &in); err != nil {
			return toolArgError(call.Tool, err)
		}
		return marshalToolResult(EstimateSAMSOM(in))

	case "benchmark_funding":
		var in FundingInput
		if err := json.Unmarshal(call.Args, &in); err != nil {
			return toolArgError(call.Tool, err)
		}
		return marshalToolResult(BenchmarkFunding(in))

	case "grade_investment_readiness":
		var in struct {
			Scores map[string]int `json:"scores"`
			Stage  string         `json:"stage"`
		}
		if err := json.Unmarshal(call.Args, &in); err != nil {
			return toolArgError(call.Tool, err)
		}
		return marshalToolResult(GradeReadiness(in.Scores, in.Stage))

	case "list_decks":
		var in struct {
			Limit int `json:"limit"`
		}
		_ = json.Unmarshal(call.Args, &in)
		return s.listDecksTool(ctx, userID, in.Limit)

	case "get_pipeline_summary":
		return s.pipelineSummaryTool(ctx, userID)

	case "get_deal_details":
		var in struct {
			StartupName string `json:"startupName"`
		}
		if err := json.Unmarshal(call.Args, &in); err != nil {
			return toolArgError(call.Tool, err)
		}
		return s.dealDetailsTool(ctx, userID, in.StartupName)

	default:
		return fmt.Sprintf("unknown tool: %s", call.Tool)
	}
}

func (s *Service) listDecksTool(ctx context.Context, userID string, limit int) string {
	if limit <= 0 {
		limit = 10
	}
	list, err := s.Decks.List(ctx, userID, "", limit, 0)
	if err != nil {
		return "Could not list decks."
	}
	if len(list) == 0 {
		return "No decks found in your portfolio."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d decks:\n", len(list))
	for _, deck := range list {
		score := "n/a"
		if deck.MatchScore != nil {
			score = fmt.Sprintf("%.0f", *deck.MatchScore)
		}
		fmt.Fprintf(&b, "- %s (file: %s) score: %s status: %s\n",
			deck.StartupName, deck.Filename, score, deck.Status)
	}
	return b.String()
}

func (s *Service) pipelineSummaryTool(ctx context.Context, userID string) string {
	list, err := s.Decks.List(ctx, userID, "", 200, 0)
	if err != nil {
		return "Could not generate pipeline summary."
	}
	if len(list) == 0 {
		return "Your pipeline is currently empty."
	}

	scored := make([]decks.Deck, 0, len(list))
	byStatus := map[decks.Status]int{}
	for _, deck := range list {
		byStatus[deck.Status]++
		if deck.MatchScore != nil {
			scored = append(scored, deck)
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		return *scored[i].MatchScore > *scored[j].MatchScore
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Pipeline summary: %d total deals.\n", len(list))
	if len(scored) > 0 {
		b.WriteString("Top rated startups:\n")
		for i, deck := range scored {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s (score: %.0f/100)\n", deck.StartupName, *deck.MatchScore)
		}
	}
	b.WriteString("Status breakdown:\n")
	for _, status := range []decks.Status{decks.StatusPending, decks.StatusAnalyzing, decks.StatusAnalyzed, decks.StatusFailed} {
		if count := byStatus[status]; count > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", status, count)
		}
	}
	return b.String()
}

func (s *Service) dealDetailsTool(ctx context.Context, userID, startupName string) string {
	name := strings.ToLower(strings.TrimSpace(startupName))
	if name == "" {
		return "A startup name is required."
	}
	list, err := s.Decks.List(ctx, userID, "", 200, 0)
	if err != nil {
		return "Could not retrieve deal details."
	}

	var target *decks.Deck
	for i := range list {
		if strings.ToLower(list[i].StartupName) == name {
			target = &list[i]
			break
		}
	}
	if target == nil {
		for i := range list {
			if strings.Contains(strings.ToLower(list[i].StartupName), name) {
				target = &list[i]
				break
			}
		}
	}
	if target == nil {
		return fmt.Sprintf("No deal found matching %q.", startupName)
	}

	if s.Council == nil {
		return fmt.Sprintf("Found deck for %q but analysis is unavailable.", target.StartupName)
	}
	analysis, err := s.Council.Get(ctx, userID, target.ID)
	if errors.Is(err, council.ErrNotFound) {
		return fmt.Sprintf("Found deck for %q but no analysis results are available yet.", target.StartupName)
	}
	if err != nil {
		return "Could not retrieve deal details."
	}
	return fmt.Sprintf("Structured analysis for %s:\n%s", target.StartupName, formatAnalysisContext(analysis))
}

func toolArgError(tool string, err error) string {
	return fmt.Sprintf("invalid arguments for %s: %v", tool, err)
}

func marshalToolResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("tool result marshal failed: %v", err)
	}
	return string(data)
}

func titleFromQuery(query string) string {
	query = strings.TrimSpace(query)
	runes := []rune(query)
	if len(runes) <= maxTitleRunes {
		return query
	}
	return string(runes[:maxTitleRunes]) + "..."
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
