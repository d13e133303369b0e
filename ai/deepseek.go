package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/korjavin/gkentei/config"
	"github.com/korjavin/gkentei/models"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("deepseek api key is not configured")

// DeepseekClient manages interactions with Deepseek API
type DeepseekClient struct {
	cfg  config.DeepseekConfig
	http *http.Client

	newBackOff func() backoff.BackOff
}

// NewDeepseekClient creates a new Deepseek API client
func NewDeepseekClient(cfg config.DeepseekConfig) *DeepseekClient {
	defaults := config.Default().Deepseek
	if cfg.URL == "" {
		cfg.URL = defaults.URL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	return &DeepseekClient{
		cfg:  cfg,
		http: &http.Client{},
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekRequest struct {
	Model    string            `json:"model"`
	Messages []deepseekMessage `json:"messages"`
}

type deepseekResponseChoice struct {
	Message deepseekMessage `json:"message"`
}

type deepseekResponse struct {
	Choices []deepseekResponseChoice `json:"choices"`
	ID      string                   `json:"id,omitempty"`
}

// ExplainQuestion asks Deepseek for a study explanation of q. Rate limits,
// server errors and timeouts are retried with exponential backoff.
func (c *DeepseekClient) ExplainQuestion(ctx context.Context, q models.Question) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	reqJSON, err := json.Marshal(deepseekRequest{
		Model:    c.cfg.Model,
		Messages: []deepseekMessage{{Role: "user", Content: prompt(q)}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	attempt := 0
	content, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		return c.send(ctx, reqJSON)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("Deepseek request failed, retrying",
				slog.Int64("question_id", q.ID),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.Any("error", err))
		}),
	)
	if err != nil {
		return "", fmt.Errorf("explain question %d: %w", q.ID, err)
	}

	slog.Info("Explanation generated",
		slog.Int64("question_id", q.ID),
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
		slog.Int("length", len(content)))
	return content, nil
}

func (c *DeepseekClient) send(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err := fmt.Errorf("rate limited: %s", truncate(raw, 200))
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			return "", errors.Join(err, backoff.RetryAfter(secs))
		}
		return "", err
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(raw, 200))
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var parsed deepseekResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", backoff.Permanent(errors.New("no choices in API response"))
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func prompt(q models.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am preparing for the JDLA Deep Learning for GENERAL (G-Kentei) exam.\n")
	fmt.Fprintf(&b, "Category: %s\n\nQuestion: %s\n\nOptions:\n", q.Category, q.Question)
	for i, o := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o)
	}
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
		fmt.Fprintf(&b, "\nThe correct answer is option %d.\n", q.CorrectAnswer+1)
	}
	b.WriteString(`
Please:
1. Explain why the correct answer is correct
2. Explain briefly why each other option is wrong
3. Suggest a short memory aid for the underlying concept

Be concise and answer in plain text.
`)
	return b.String()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
