package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

const providerName = "openai"

const systemPrompt = "You label photos for a keyword search index. " +
	"Reply with a JSON object {\"labels\": [...]} listing short, capitalized English nouns " +
	"for the objects, animals, scenes and activities visible in the image, most prominent first."

// Detector is a label detection provider using an OpenAI-compatible vision model.
type Detector struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the vision provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewDetector creates an OpenAI-compatible label detector.
func NewDetector(cfg *Config) *Detector {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Detector{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// DetectLabels implements photo.Detector. The model reports no confidence, so Confidence is 0.
func (d *Detector) DetectLabels(ctx context.Context, image []byte, maxLabels int) ([]photo.Label, error) {
	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf("Return at most %d labels.", maxLabels),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL(image),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.DetectionRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.DetectionRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("empty completion response: %w", domain.ErrLabelDetection)
	}

	names, err := parseLabels(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.DetectionRequestsTotal.WithLabelValues(providerName, "error").Inc()
		d.logger.Warn("Unparseable label reply", zap.String("content", resp.Choices[0].Message.Content))
		return nil, fmt.Errorf("parse labels: %w: %w", domain.ErrLabelDetection, err)
	}

	metrics.DetectionRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.DetectionRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if maxLabels > 0 && len(names) > maxLabels {
		names = names[:maxLabels]
	}
	labels := make([]photo.Label, len(names))
	for i, n := range names {
		labels[i] = photo.Label{Name: n}
	}
	return labels, nil
}

// dataURL embeds the image inline; the content type is sniffed from the bytes.
func dataURL(image []byte) string {
	return "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// parseLabels accepts {"labels":[...]} or a bare array, optionally inside a markdown fence.
func parseLabels(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []string
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return nil, err
		}
	} else {
		var obj struct {
			Labels []string `json:"labels"`
		}
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return nil, err
		}
		raw = obj.Labels
	}

	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := strings.ToLower(n)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		names = append(names, n)
	}
	return names, nil
}

// parseAPIError extracts a human-readable error and wraps domain.ErrLabelDetection.
func parseAPIError(err error) error {
	wrap := domain.ErrLabelDetection

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("vision API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("vision API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("vision request failed: %w: %w", wrap, err)
}
