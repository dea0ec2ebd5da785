package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/provider"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const sentimentInstruction = "Classify the overall collaboration sentiment of the following " +
	"case thread between a client and a provider. Answer with exactly one word: " +
	"Positivo, Neutral or Negativo."

// LLMSentimentClassifier asks a chat-completions style endpoint to label a
// case thread.
type LLMSentimentClassifier struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// NewLLMSentimentClassifier builds a classifier from config.
func NewLLMSentimentClassifier(cfg *config.Classifier, logger *slog.Logger) *LLMSentimentClassifier {
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	if cfg.RequestsPerMinute <= 0 {
		perSecond = rate.Inf
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &LLMSentimentClassifier{
		apiKey: cfg.ApiKey,
		apiURL: cfg.ApiUrl,
		model:  cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter: rate.NewLimiter(perSecond, burst),
		logger:  logger.With("provider", "llm-sentiment"),
	}
}

func (p *LLMSentimentClassifier) Name() string { return "llm" }

// Classify sends the thread and parses the first choice. An empty thread is
// Neutral without a network call.
func (p *LLMSentimentClassifier) Classify(
	ctx context.Context,
	comments []*cases.Comment,
) (cases.Sentiment, error) {
	if len(comments) == 0 {
		return cases.SentimentNeutral, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var thread strings.Builder
	for _, c := range comments {
		fmt.Fprintf(&thread, "[%s] %s\n", c.CreatedAt.Format(time.RFC3339), c.Body)
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: sentimentInstruction},
			{Role: "user", Content: thread.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(raw))
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("response has no completion content")
	}
	label := strings.Trim(strings.TrimSpace(content.String()), ".\"'")
	sentiment := cases.ParseSentiment(label)
	p.logger.Debug("case thread classified", "label", label, "sentiment", sentiment, "comments", len(comments))
	return sentiment, nil
}

var _ provider.SentimentClassifier = (*LLMSentimentClassifier)(nil)
