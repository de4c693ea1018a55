package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/carevault/carevault/internal/model"
)

func TestBuildChatPromptWithSources(t *testing.T) {
	sources := []model.ChunkMatch{
		{DocumentTitle: "Blood panel", Content: "hemoglobin 12.4 g/dL", Similarity: 0.91},
	}
	history := []model.ChatMessage{
		{Role: model.ChatRoleAssistant, Content: "Hello, how can I help?"},
		{Role: model.ChatRoleUser, Content: "Hi"},
	}
	prompt := buildChatPrompt(history, sources, "What were the latest results?")

	assert.Contains(t, prompt, "[Blood panel] (91% match) hemoglobin 12.4 g/dL")
	assert.Contains(t, prompt, "user: What were the latest results?")
	// history arrives newest-first and must be replayed oldest-first
	assert.Less(t, strings.Index(prompt, "user: Hi"), strings.Index(prompt, "assistant: Hello"))
}

func TestSessionTitleTruncatesOnRuneBoundary(t *testing.T) {
	short := "Como estão os exames?"
	assert.Equal(t, short, sessionTitle(short))

	long := strings.Repeat("é", sessionTitleMax+10)
	title := sessionTitle(long)
	assert.Equal(t, sessionTitleMax, utf8.RuneCountInString(title))
	assert.True(t, utf8.ValidString(title))
}

func TestBuildChatPromptWithoutContext(t *testing.T) {
	prompt := buildChatPrompt(nil, nil, "ping")
	assert.NotContains(t, prompt, "Relevant excerpts")
	assert.NotContains(t, prompt, "Conversation so far")
	assert.Contains(t, prompt, "user: ping")
}
