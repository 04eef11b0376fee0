package n8n

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"canvasd/app/config"

	"github.com/samber/do"
)

const requestTimeout = 30 * time.Second

// Client relays research and prompt-enhancement requests to an n8n webhook
// workflow. The contract is a JSON POST; the workflow answers with an
// arbitrary JSON object that is normalized into a Result.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

type Result struct {
	Success bool
	Content string
	Err     string
}

type researchRequest struct {
	Query   string            `json:"query"`
	Type    string            `json:"type"`
	Context map[string]string `json:"context,omitempty"`
}

type promptRequest struct {
	Prompt          string `json:"prompt"`
	Type            string `json:"type"`
	DocumentContext string `json:"document_context,omitempty"`
}

type webhookResponse struct {
	Content string `json:"content"`
	Data    *struct {
		Content string `json:"content"`
	} `json:"data"`
	Error string `json:"error"`
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.N8N.WebhookURL, cfg.N8N.InsecureSkipVerify), nil
}

func New(webhookURL string, insecureSkipVerify bool) *Client {
	httpClient := &http.Client{
		Timeout: requestTimeout,
	}

	if insecureSkipVerify {
		// self-hosted n8n instances often run on self-signed certs
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// SendResearch asks the workflow to research a query. The current document
// is passed along so the workflow can tailor its answer.
func (c *Client) SendResearch(ctx context.Context, query, documentContext string) (*Result, error) {
	payload := researchRequest{
		Query: query,
		Type:  "research",
	}

	if documentContext != "" {
		payload.Context = map[string]string{"document": documentContext}
	}

	return c.post(ctx, payload)
}

// EnhancePrompt asks the workflow to rewrite a prompt with external
// context.
func (c *Client) EnhancePrompt(ctx context.Context, prompt, documentContext string) (*Result, error) {
	payload := promptRequest{
		Prompt:          prompt,
		Type:            "prompt_enhancement",
		DocumentContext: documentContext,
	}

	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload any) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach n8n webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("n8n webhook returned status %d", resp.StatusCode)
	}

	var parsed webhookResponse
	if err = json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON from n8n webhook: %w", err)
	}

	return normalize(parsed), nil
}

// normalize flattens the loose webhook response shape into a Result.
// Workflows answer either with {content} at top level or nested under
// {data.content}; an {error} field wins over both.
func normalize(resp webhookResponse) *Result {
	if resp.Error != "" {
		return &Result{Err: resp.Error}
	}

	content := resp.Content
	if content == "" && resp.Data != nil {
		content = resp.Data.Content
	}

	return &Result{
		Success: true,
		Content: content,
	}
}
