package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/ai"
	"github.com/carevault/carevault/internal/model"
	appErr "github.com/carevault/carevault/internal/pkg/errors"
	"github.com/carevault/carevault/internal/repo"
)

const (
	historyWindow   = 10
	sessionTitleMax = 50
)

// AssistantService answers caregiver questions grounded in the user's own
// documents. Retrieval and persistence are both best-effort: the chat reply
// is the one thing that must not fail when the model answered.
type AssistantService struct {
	sessions  *repo.SessionRepo
	search    *SearchService
	generator ai.IGenerator
}

func NewAssistantService(sessions *repo.SessionRepo, search *SearchService, generator ai.IGenerator) *AssistantService {
	return &AssistantService{sessions: sessions, search: search, generator: generator}
}

type ChatInput struct {
	SessionID string
	Message   string
}

type ChatOutput struct {
	SessionID string             `json:"session_id"`
	Reply     string             `json:"reply"`
	Sources   []model.ChunkMatch `json:"sources"`
}

func (s *AssistantService) Chat(ctx context.Context, userID string, input ChatInput) (*ChatOutput, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID))

	session, err := s.resolveSession(ctx, userID, input.SessionID, message)
	if err != nil {
		return nil, err
	}

	history, err := s.sessions.ListRecentMessages(ctx, session.ID, historyWindow)
	if err != nil {
		logger.Warn("load chat history failed", zap.Error(err))
		history = nil
	}

	var sources []model.ChunkMatch
	if s.search != nil {
		matches, err := s.search.Search(ctx, userID, message)
		if err != nil {
			logger.Warn("document retrieval failed, answering without context", zap.Error(err))
		} else {
			sources = matches
		}
	}

	reply, err := s.generator.Generate(ctx, buildChatPrompt(history, sources, message))
	if err != nil {
		return nil, err
	}

	s.persistExchange(ctx, session, userID, message, reply)
	return &ChatOutput{
		SessionID: session.ID,
		Reply:     reply,
		Sources:   sources,
	}, nil
}

func (s *AssistantService) ListSessions(ctx context.Context, userID string) ([]model.ChatSession, error) {
	return s.sessions.ListSessions(ctx, userID)
}

func (s *AssistantService) ListMessages(ctx context.Context, userID, sessionID string, limit uint) ([]model.ChatMessage, error) {
	if _, err := s.sessions.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.sessions.ListRecentMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	reverseMessages(messages)
	return messages, nil
}

func (s *AssistantService) resolveSession(ctx context.Context, userID, sessionID, message string) (*model.ChatSession, error) {
	if sessionID != "" {
		return s.sessions.GetSession(ctx, userID, sessionID)
	}
	now := time.Now().Unix()
	session := &model.ChatSession{
		ID:     newID(),
		UserID: userID,
		Title:  sessionTitle(message),
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// sessionTitle derives a session title from the opening message, truncated on
// a rune boundary so multi-byte text stays valid UTF-8.
func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) > sessionTitleMax {
		return string(runes[:sessionTitleMax])
	}
	return message
}

func (s *AssistantService) persistExchange(ctx context.Context, session *model.ChatSession, userID, message, reply string) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", session.ID))
	now := time.Now().Unix()
	userMsg := &model.ChatMessage{
		ID:        newID(),
		SessionID: session.ID,
		UserID:    userID,
		Role:      model.ChatRoleUser,
		Content:   message,
		Ctime:     now,
	}
	if err := s.sessions.CreateMessage(ctx, userMsg); err != nil {
		logger.Warn("persist user message failed", zap.Error(err))
	}
	assistantMsg := &model.ChatMessage{
		ID:        newID(),
		SessionID: session.ID,
		UserID:    userID,
		Role:      model.ChatRoleAssistant,
		Content:   reply,
		Ctime:     now + 1,
	}
	if err := s.sessions.CreateMessage(ctx, assistantMsg); err != nil {
		logger.Warn("persist assistant message failed", zap.Error(err))
	}
	if err := s.sessions.TouchSession(ctx, session.ID, now); err != nil {
		logger.Warn("touch session failed", zap.Error(err))
	}
}

func buildChatPrompt(history []model.ChatMessage, sources []model.ChunkMatch, message string) string {
	var sb strings.Builder
	sb.WriteString(`You are a caring assistant helping a caregiver manage medical documents and care information. Answer clearly and compassionately, and remind the user to consult medical professionals for clinical decisions.`)
	sb.WriteString("\n\n")

	if len(sources) > 0 {
		sb.WriteString("Relevant excerpts from the user's documents:\n")
		for _, src := range sources {
			fmt.Fprintf(&sb, "- [%s] (%.0f%% match) %s\n", src.DocumentTitle, src.Similarity*100, src.Content)
		}
		sb.WriteString("\n")
	}

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		reverseMessages(history)
		for _, msg := range history {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "user: %s\nassistant:", message)
	return sb.String()
}

func reverseMessages(messages []model.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
