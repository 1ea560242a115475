package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds one completion request when the config does not
// override it.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPProvider posts completion requests to a JSON endpoint.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a provider for the given completion endpoint.
// A zero timeout falls back to DefaultHTTPTimeout.
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type httpRequest struct {
	Prompt      string  `json:"prompt"`
	Grammar     string  `json:"grammar,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	RequestID   string  `json:"request_id,omitempty"`
}

type httpResponse struct {
	Text            string `json:"text"`
	TokensGenerated int    `json:"tokens_generated"`
	FinishReason    string `json:"finish_reason"`
}

// Generate implements Provider over HTTP.
func (p *HTTPProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(httpRequest{
		Prompt:      req.Prompt,
		Grammar:     req.Grammar,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation backend returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded httpResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &Response{
		Text:            decoded.Text,
		TokensGenerated: decoded.TokensGenerated,
		FinishReason:    decoded.FinishReason,
	}, nil
}
