// Package ollama talks to a local Ollama server and turns a worry into a
// guided meditation script.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultURL is the address of a local Ollama install.
	DefaultURL = "http://localhost:11434"
	// DefaultModel is the model used for meditation scripts.
	DefaultModel = "phi4"
	// DefaultTimeout bounds one generation, including model load.
	DefaultTimeout = 180 * time.Second

	maxLineBytes = 1 << 20
)

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL    string
	model      string
	options    map[string]any
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithModelOptions sets the sampling options sent with every request
// (temperature, top_p, num_predict...).
func WithModelOptions(opts map[string]any) Option {
	return func(c *Client) {
		c.options = opts
	}
}

// NewClient creates an Ollama client. Empty arguments fall back to
// DefaultURL and DefaultModel.
func NewClient(baseURL, model string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log.Default().WithPrefix("ollama"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// generateChunk is one NDJSON line of a streamed /api/generate reply.
type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Available reports whether the server answers /api/tags.
func (c *Client) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Stream sends prompt with stream enabled and calls onChunk for every piece
// of text as it arrives. It returns the full concatenated response.
func (c *Client) Stream(ctx context.Context, system, prompt string, onChunk func(string)) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  system,
		Stream:  true,
		Options: c.options,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("generate", "model", c.model, "prompt_bytes", len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ollama: %w", ctx.Err())
		}

		return "", fmt.Errorf("%w at %s: %w", ErrUnavailable, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	text, err := readStream(resp.Body, onChunk)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("generate done", "model", c.model, "words", len(strings.Fields(text)))

	return text, nil
}

// Generate runs a streamed generation and returns the trimmed result.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	text, err := c.Stream(ctx, system, prompt, nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

func readStream(r io.Reader, onChunk func(string)) (string, error) {
	var sb strings.Builder

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk

		err := json.Unmarshal(line, &chunk)
		if err != nil {
			return "", fmt.Errorf("ollama: decode stream: %w", err)
		}

		if chunk.Error != "" {
			return "", fmt.Errorf("ollama: %s", chunk.Error)
		}

		if chunk.Response != "" {
			sb.WriteString(chunk.Response)

			if onChunk != nil {
				onChunk(chunk.Response)
			}
		}

		if chunk.Done {
			return sb.String(), nil
		}
	}

	err := sc.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("ollama: read stream: %w", err)
	}

	return sb.String(), nil
}
