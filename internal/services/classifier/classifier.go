package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emotion-mod-tgbot-go/internal/config"
	"github.com/emotion-mod-tgbot-go/internal/emotion"
	"github.com/sirupsen/logrus"
)

// ErrClassification marks upstream model failures. Events that fail
// classification are dropped from moderation; the error is logged but
// never surfaced to chat members.
var ErrClassification = errors.New("classification failed")

// Result is one classification outcome, already normalized into the
// canonical label set.
type Result struct {
	Label      emotion.Label
	Confidence float64
}

// Service represents the emotion classifier interface
type Service interface {
	ClassifyText(ctx context.Context, text string) (Result, error)
	ClassifyAudio(ctx context.Context, audio []byte) (Result, error)
}

// HTTPClassifier calls remote inference endpoints over HTTP.
type HTTPClassifier struct {
	cfg        *config.ClassifierConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPClassifier creates a classifier backed by the configured
// inference endpoints.
func NewHTTPClassifier(cfg *config.ClassifierConfig, logger *logrus.Logger) Service {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClassifier{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 2 * timeout,
		},
		logger: logger,
	}
}

func (s *HTTPClassifier) ClassifyText(ctx context.Context, text string) (Result, error) {
	raw, score, err := s.classify(ctx, &s.cfg.Text, map[string]interface{}{
		"model": s.cfg.Text.Model,
		"text":  text,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Label: emotion.Normalize(emotion.SourceText, raw), Confidence: score}, nil
}

func (s *HTTPClassifier) ClassifyAudio(ctx context.Context, audio []byte) (Result, error) {
	raw, score, err := s.classify(ctx, &s.cfg.Audio, map[string]interface{}{
		"model": s.cfg.Audio.Model,
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Label: emotion.Normalize(emotion.SourceAudio, raw), Confidence: score}, nil
}

// classify performs the request with retry logic: exponential backoff
// on server errors, no retry on client errors.
func (s *HTTPClassifier) classify(ctx context.Context, endpoint *config.EndpointConfig, payload map[string]interface{}) (string, float64, error) {
	maxRetries := s.cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		label, score, retryable, err := s.classifyOnce(ctx, endpoint, payload, attempt)
		if err == nil {
			return label, score, nil
		}

		lastErr = err
		if !retryable {
			break
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Classifier request failed, retrying...")

		if attempt < maxRetries {
			// Exponential backoff: 2s, 4s, 8s
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return "", 0, fmt.Errorf("%w: %v", ErrClassification, lastErr)
}

func (s *HTTPClassifier) classifyOnce(ctx context.Context, endpoint *config.EndpointConfig, payload map[string]interface{}, attempt int) (string, float64, bool, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	timeout := s.cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/classify", strings.TrimSuffix(endpoint.BaseURL, "/"))
	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if endpoint.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", endpoint.APIKey))
	}

	s.logger.WithFields(logrus.Fields{
		"url":     url,
		"model":   endpoint.Model,
		"attempt": attempt,
	}).Debug("Sending classification request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Don't retry for client errors (4xx)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", 0, false, fmt.Errorf("classifier returned client error %d: %s", resp.StatusCode, string(body))
		}
		return "", 0, true, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, false, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", 0, false, fmt.Errorf("classifier error: %s", result.Error.Message)
	}
	if result.Label == "" {
		return "", 0, false, fmt.Errorf("no label in classifier response")
	}

	return result.Label, result.Score, false, nil
}
