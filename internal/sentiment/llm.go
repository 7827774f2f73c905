package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/logger"
)

const llmSystemPrompt = `You are a financial news sentiment classifier.
Given a single equity news headline, respond with a JSON object only:
{"label": one of "very bullish", "bullish", "neutral", "bearish", "very bearish",
 "score": a number between -1.0 and 1.0}
No prose, no markdown fences.`

// LLMScorer classifies headlines with a chat-completion model. Any failure
// (missing key, transport error, unparseable reply) abstains so the chain can
// fall through to the lexicon.
type LLMScorer struct {
	client *openai.Client
	model  string
	cfg    *config.Config
	logger *logger.Logger
}

func NewLLMScorer(cfg *config.Config, log *logger.Logger) *LLMScorer {
	var client *openai.Client
	if cfg.OpenAI.APIKey != "" {
		client = openai.NewClient(cfg.OpenAI.APIKey)
	}
	return &LLMScorer{
		client: client,
		model:  cfg.OpenAI.Model,
		cfg:    cfg,
		logger: log,
	}
}

func (s *LLMScorer) Score(ctx context.Context, headline string) (Result, bool) {
	if s.client == nil {
		return Result{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpenAITimeout())
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: headline},
		},
	})
	if err != nil {
		s.logger.Debug("llm sentiment call", "error", err)
		return Result{}, false
	}
	if len(resp.Choices) == 0 {
		return Result{}, false
	}

	res, err := parseLLMReply(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Debug("llm sentiment parse", "error", err)
		return Result{}, false
	}
	return res, true
}

func parseLLMReply(text string) (Result, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Tolerate prose around the object.
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var parsed struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Result{}, err
	}

	label := strings.ToLower(strings.TrimSpace(parsed.Label))
	switch label {
	case LabelVeryBullish, LabelBullish, LabelNeutral, LabelBearish, LabelVeryBearish:
		return Result{Label: label, Score: parsed.Score, Source: "llm"}, nil
	}
	return Result{}, fmt.Errorf("unknown sentiment label %q", parsed.Label)
}
