package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// Publisher enqueues job messages on QStash for delivery to a callback URL.
type Publisher struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logger.Logger
	newID      func() string
}

func NewPublisher(baseURL, token string, log *logger.Logger) *Publisher {
	return &Publisher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log.With("service", "QStashPublisher"),
		newID:      uuid.NewString,
	}
}

type publishResponse struct {
	MessageID string `json:"messageId"`
}

// Publish posts payload for delivery to url and returns the transport's message id.
func (p *Publisher) Publish(ctx context.Context, url string, payload any) (string, error) {
	if p.token == "" {
		return "", fmt.Errorf("%w: QStash token is not set", domain.ErrConfiguration)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/publish/"+url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	dedupID := p.newID()
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Deduplication-Id", dedupID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: publish: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: publish status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(raw))
	}

	var out publishResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		p.log.Warn("QStash publish response not decodable", "error", err)
	}

	p.log.Debug("job published", "url", url, "message_id", out.MessageID, "dedup_id", dedupID)
	return out.MessageID, nil
}
