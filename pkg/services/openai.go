package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DreamAI/pkg/cache"
	"DreamAI/pkg/config"
	"DreamAI/pkg/logger"
)

// Options configures OpenAIService. Zero values fall back to the defaults
// in pkg/config.
type Options struct {
	APIKey       string
	Endpoint     string // chat completions URL
	BaseURL      string // root for /threads
	AssistantID  string
	Model        string
	Temperature  float64
	MaxTokens    int
	PollInterval time.Duration
	HTTPClient   *http.Client
	Cache        *cache.Cache
	CacheTTL     time.Duration
}

func OptionsFromConfig() Options {
	return Options{
		APIKey:       config.OpenAIAPIKey,
		Endpoint:     config.OpenAIEndpoint,
		BaseURL:      config.OpenAIBaseURL,
		AssistantID:  config.OpenAIAssistantID,
		Model:        config.OpenAIModel,
		Temperature:  config.OpenAITemperature,
		MaxTokens:    config.OpenAIMaxTokens,
		PollInterval: time.Duration(config.RunPollIntervalMs) * time.Millisecond,
		Cache:        cache.Default(),
		CacheTTL:     time.Duration(config.ChatCacheTTLSeconds) * time.Second,
	}
}

type OpenAIService struct {
	opt  Options
	http *http.Client
	log  *logger.Logger
}

func NewOpenAIService(o Options, log *logger.Logger) *OpenAIService {
	if o.Endpoint == "" {
		o.Endpoint = config.OpenAIEndpoint
	}
	if o.BaseURL == "" {
		o.BaseURL = config.OpenAIBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Model == "" {
		o.Model = config.OpenAIModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = config.OpenAIMaxTokens
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAIService{opt: o, http: hc, log: logger.OrNop(log).With("service", "openai")}
}

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP error! status: %d", e.Code) }

var (
	ErrNoChoices    = errors.New("response has no choices")
	ErrEmptyThread  = errors.New("thread has no messages")
	ErrNoIdentifier = errors.New("response has no id")
)

// RunFailedError is returned when a run ends in a terminal non-success state.
type RunFailedError struct {
	Status string
}

func (e *RunFailedError) Error() string { return "Run failed with status: " + e.Status }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// InterpretDream sends one chat-completion request. Identical requests are
// served from the cache while the entry is fresh.
func (s *OpenAIService) InterpretDream(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse {
	content := DreamContent(dream, answers)
	key := cache.KeyFromStrings("interpret", s.opt.Model, analyst, content)
	if text, ok := s.opt.Cache.GetString(key); ok {
		s.log.Debug("interpretation served from cache", "analyst", analyst)
		return ChatResponse{Text: text}
	}

	req := completionRequest{
		Model: s.opt.Model,
		Messages: []chatMessage{
			{Role: "system", Content: PersonaPrompt(analyst)},
			{Role: "user", Content: content},
		},
		Temperature: s.opt.Temperature,
		MaxTokens:   s.opt.MaxTokens,
	}
	var out completionResponse
	if err := s.do(ctx, http.MethodPost, s.opt.Endpoint, req, &out, false); err != nil {
		s.log.Warn("interpretation failed", "analyst", analyst, "error", err)
		return failed(err)
	}
	if len(out.Choices) == 0 {
		return failed(ErrNoChoices)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text != "" && s.opt.CacheTTL > 0 {
		s.opt.Cache.Set(key, text, s.opt.CacheTTL)
	}
	return ChatResponse{Text: text}
}

// InterpretDreamInThread creates a thread, posts the dream and runs the
// assistant with the persona instructions.
func (s *OpenAIService) InterpretDreamInThread(ctx context.Context, dream, analyst string, answers map[string]string) ChatResponse {
	threadID, err := s.createThread(ctx)
	if err != nil {
		return failed(err)
	}
	if err := s.addMessage(ctx, threadID, DreamContent(dream, answers)); err != nil {
		return failed(err)
	}
	text, err := s.runAssistant(ctx, threadID, PersonaPrompt(analyst))
	if err != nil {
		return failed(err)
	}
	return ChatResponse{Text: text, ThreadID: threadID}
}

// FollowUp posts question to threadID. Without a thread it creates one and
// replays history first so the assistant sees the earlier exchange.
func (s *OpenAIService) FollowUp(ctx context.Context, history []string, question, analyst, threadID string) ChatResponse {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		id, err := s.createThread(ctx)
		if err != nil {
			return failed(err)
		}
		threadID = id
		for _, m := range history {
			if err := s.addMessage(ctx, threadID, m); err != nil {
				return failed(err)
			}
		}
	}
	if err := s.addMessage(ctx, threadID, question); err != nil {
		return failed(err)
	}
	text, err := s.runAssistant(ctx, threadID, FollowUpPrompt(analyst))
	if err != nil {
		return failed(err)
	}
	return ChatResponse{Text: text, ThreadID: threadID}
}

type idResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *OpenAIService) createThread(ctx context.Context) (string, error) {
	var out idResponse
	err := s.do(ctx, http.MethodPost, s.opt.BaseURL+"/threads", nil, &out, true)
	if err == nil && out.ID == "" {
		err = ErrNoIdentifier
	}
	if err != nil {
		return "", fmt.Errorf("Failed to create thread: %w", err)
	}
	s.log.Debug("thread created", "thread", out.ID)
	return out.ID, nil
}

func (s *OpenAIService) addMessage(ctx context.Context, threadID, content string) error {
	body := chatMessage{Role: "user", Content: content}
	if err := s.do(ctx, http.MethodPost, s.opt.BaseURL+"/threads/"+threadID+"/messages", body, nil, true); err != nil {
		return fmt.Errorf("Failed to add message to thread: %w", err)
	}
	return nil
}

type runRequest struct {
	AssistantID  string `json:"assistant_id"`
	Instructions string `json:"instructions,omitempty"`
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// runAssistant starts a run and polls it until it reaches a terminal state.
// There is no deadline besides ctx.
func (s *OpenAIService) runAssistant(ctx context.Context, threadID, instructions string) (string, error) {
	text, err := s.run(ctx, threadID, instructions)
	if err != nil {
		return "", fmt.Errorf("Failed to run assistant: %w", err)
	}
	return text, nil
}

func (s *OpenAIService) run(ctx context.Context, threadID, instructions string) (string, error) {
	threadURL := s.opt.BaseURL + "/threads/" + threadID
	var created idResponse
	req := runRequest{AssistantID: s.opt.AssistantID, Instructions: instructions}
	if err := s.do(ctx, http.MethodPost, threadURL+"/runs", req, &created, true); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", ErrNoIdentifier
	}
	log := s.log.With("thread", threadID, "run", created.ID)

	polls := 0
	for {
		var st idResponse
		if err := s.do(ctx, http.MethodGet, threadURL+"/runs/"+created.ID, nil, &st, true); err != nil {
			return "", err
		}
		polls++
		switch st.Status {
		case "completed":
			log.Debug("run completed", "polls", polls)
			return s.latestMessage(ctx, threadURL)
		case "failed", "cancelled", "expired":
			log.Warn("run ended", "status", st.Status, "polls", polls)
			return "", &RunFailedError{Status: st.Status}
		}
		sleepWithContext(ctx, s.opt.PollInterval)
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

func (s *OpenAIService) latestMessage(ctx context.Context, threadURL string) (string, error) {
	var list messageList
	if err := s.do(ctx, http.MethodGet, threadURL+"/messages?order=desc&limit=1", nil, &list, true); err != nil {
		return "", err
	}
	if len(list.Data) == 0 || len(list.Data[0].Content) == 0 {
		return "", ErrEmptyThread
	}
	return strings.TrimSpace(list.Data[0].Content[0].Text.Value), nil
}

// do sends one JSON request. A nil out skips decoding.
func (s *OpenAIService) do(ctx context.Context, method, url string, in, out any, assistants bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.opt.APIKey)
	if assistants {
		req.Header.Set("OpenAI-Beta", "assistants=v2")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("provider returned error", "method", method, "status", resp.StatusCode, "body", truncate(string(respBytes), 300))
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
