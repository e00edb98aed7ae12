// Package llm wraps the Google Gemini REST API with graceful fallbacks:
// an unconfigured client or a failing API never breaks a dialog, it
// degrades to a placeholder reply.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// APIKeyEnv is the environment variable holding the Gemini API key.
const APIKeyEnv = "GEMINI_API"

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-pro"

	// maxResponseSize bounds API response reads.
	maxResponseSize = 8 << 20
)

// Placeholder replies for degraded operation.
const (
	notConfiguredReply = "[LLM is not configured. Set the " + APIKeyEnv + " environment variable " +
		"with a valid API key.\nPrompt received was processed locally for testing purposes.]"
	modelNotFoundReply = "[Automatic reply unavailable: the requested model was not found. " +
		"Check the model name in settings and pick a supported Gemini model.]"
	callFailedReply = "[Automatic reply unavailable: the LLM request failed.]"
	emptyReply      = "[The LLM returned no reply.]"
)

// Config selects the model a Client talks to.
type Config struct {
	Model string
}

// ModelInfo describes one model available to the configured API key.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// Client calls the Gemini generateContent API.
type Client struct {
	cfg        Config
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a client for the given model. The API key comes from
// the environment; a missing key leaves the client in placeholder mode.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		apiKey:  os.Getenv(APIKeyEnv),
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReply sends the prompt (plus optional image attachments) to the
// model and returns its text reply. Failures degrade to placeholder text
// rather than an error so the dialog stays usable.
func (c *Client) GenerateReply(ctx context.Context, prompt string, imagePaths []string) string {
	if !c.Configured() {
		c.log.Warn("llm not configured, returning placeholder reply")
		return notConfiguredReply
	}

	parts := []geminiPart{{Text: prompt}}
	for _, path := range imagePaths {
		if path == "" {
			continue
		}
		part, err := imagePart(path)
		if err != nil {
			c.log.Warn("skipping prompt image", "path", path, "error", err)
			continue
		}
		parts = append(parts, part)
	}

	body, err := sonic.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		c.log.Error("encoding llm request", "error", err)
		return callFailedReply
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Error("creating llm request", "error", err)
		return callFailedReply
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("llm call failed", "model", c.cfg.Model, "error", err)
		return callFailedReply
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.log.Error("reading llm response", "error", err)
		return callFailedReply
	}

	if resp.StatusCode == http.StatusNotFound {
		c.log.Warn("llm model not found", "model", c.cfg.Model)
		return modelNotFoundReply
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("llm api error", "status", resp.StatusCode, "body", truncate(string(respBody), 200))
		return callFailedReply
	}

	var apiResp geminiResponse
	if err := sonic.Unmarshal(respBody, &apiResp); err != nil {
		c.log.Error("decoding llm response", "error", err)
		return callFailedReply
	}
	if apiResp.Error != nil {
		c.log.Error("llm api error", "status", apiResp.Error.Status, "message", apiResp.Error.Message)
		return callFailedReply
	}

	text := candidateText(apiResp)
	if text == "" {
		c.log.Warn("llm returned empty response")
		return emptyReply
	}
	return strings.TrimSpace(text)
}

// ListModels queries the models available to the configured API key.
// Returns an empty list when unconfigured.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if !c.Configured() {
		return []ModelInfo{}, nil
	}

	endpoint := fmt.Sprintf("%s/models?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating models request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading models response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var listResp struct {
		Models []struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
			Description string `json:"description"`
		} `json:"models"`
	}
	if err := sonic.Unmarshal(respBody, &listResp); err != nil {
		return nil, fmt.Errorf("decoding models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(listResp.Models))
	for _, m := range listResp.Models {
		models = append(models, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return models, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// imagePart loads an image file as an inline base64 attachment. The MIME
// type comes from the file extension, defaulting to PNG.
func imagePart(path string) (geminiPart, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the upload store
	if err != nil {
		return geminiPart{}, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

func candidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
