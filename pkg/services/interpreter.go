package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"DreamAI/pkg/config"
	"DreamAI/pkg/logger"
)

// ChatResponse is the uniform result of every interpretation call. A failed
// call has an empty Text and a non-empty Error.
type ChatResponse struct {
	Text     string `json:"text"`
	Error    string `json:"error,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
}

func (r ChatResponse) OK() bool { return r.Error == "" }

func failed(err error) ChatResponse {
	return ChatResponse{Text: "", Error: err.Error()}
}

// Interpreter turns a dream (and later questions about it) into the
// analyst's reply.
type Interpreter interface {
	// InterpretDream is the single-shot first turn.
	InterpretDream(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse
	// InterpretDreamInThread is the first turn on a new remote thread.
	InterpretDreamInThread(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse
	// FollowUp continues on threadID, or replays history into a new thread
	// when threadID is empty.
	FollowUp(ctx context.Context, history []string, question, analyst, threadID string) ChatResponse
}

// NewFromConfig returns the remote client when IS_OPENAI_ENABLED=1 and the
// offline interpreter otherwise.
func NewFromConfig(log *logger.Logger) Interpreter {
	if config.IsOpenAIEnabled {
		return NewOpenAIService(OptionsFromConfig(), log)
	}
	logger.OrNop(log).Info("openai disabled, using local interpreter")
	return NewLocal()
}

const (
	personaInstructions  = "You are %s, a renowned psychoanalyst. Analyze the following dream using your unique theoretical framework and methodology. Consider any additional context provided. IMPORTANT: Always answer in the same language the user just used. If the user writes in Turkish, answer in Turkish."
	followUpInstructions = "You are %s, continuing a dream interpretation session. Maintain consistency with your previous analysis while addressing the follow-up question. IMPORTANT: Always answer in the same language the user just used. If the user writes in Turkish, answer in Turkish."
)

func PersonaPrompt(analyst string) string  { return fmt.Sprintf(personaInstructions, analyst) }
func FollowUpPrompt(analyst string) string { return fmt.Sprintf(followUpInstructions, analyst) }

// DreamContent is the user message carrying the dream and the intake answers.
func DreamContent(dream string, answers map[string]string) string {
	if answers == nil {
		answers = map[string]string{}
	}
	b, _ := json.Marshal(answers)
	return fmt.Sprintf("Dream: %s\nAdditional Context: %s", strings.TrimSpace(dream), b)
}
