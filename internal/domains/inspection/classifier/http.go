package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"fulfillment-backend/internal/domains/inspection/model"
)

// HTTPConfig points at an OpenAI-compatible chat completions endpoint.
type HTTPConfig struct {
	URL     string
	APIKey  string
	Model   string
	RPS     float64
	Timeout time.Duration
}

// HTTPClassifier sends the image inline as a data URL. Calls are throttled
// to RPS so a burst of uploads cannot exhaust the provider quota.
type HTTPClassifier struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPClassifier(cfg HTTPConfig) *HTTPClassifier {
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, image []byte, contentType string, kind model.ImageKind) (model.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Result{}, fmt.Errorf("classifier rate limit: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt(kind)},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		MaxTokens:   1500,
		Temperature: 0.1,
	})
	if err != nil {
		return model.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return model.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Result{}, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Result{}, fmt.Errorf("classifier read: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return model.Result{}, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, truncate(string(data), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return model.Result{}, fmt.Errorf("classifier envelope: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return model.Result{}, fmt.Errorf("classifier returned no choices")
	}
	return MapReport(parsed.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
