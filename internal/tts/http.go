package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/cwbudde/algo-stretch/dsp/audio"
	"github.com/cwbudde/algo-stretch/internal/wav"
)

const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"

	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/wav"

	// DefaultTimeout bounds one synthesis call.
	DefaultTimeout = 10 * time.Minute
	// DefaultRequestsPerMinute throttles calls to the service.
	DefaultRequestsPerMinute = 30
)

// HTTPSynthesizer calls a speech service over HTTP.
type HTTPSynthesizer struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// HTTPConfig configures an HTTPSynthesizer.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerMinute <= 0 selects DefaultRequestsPerMinute.
	RequestsPerMinute int
	Logger            *log.Logger
}

type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPSynthesizer returns a synthesizer for the service at cfg.BaseURL.
func NewHTTPSynthesizer(cfg HTTPConfig) *HTTPSynthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if cfg.Logger == nil {
		cfg.Logger = log.Default().WithPrefix("tts")
	}

	return &HTTPSynthesizer{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:     cfg.Logger,
	}
}

// Synthesize sends req and decodes the WAV reply.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, req Request) (audio.Signal, error) {
	req = req.withDefaults()

	err := req.Validate()
	if err != nil {
		return audio.Signal{}, err
	}

	err = s.limiter.Wait(ctx)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("tts: rate limit: %w", err)
	}

	data, err := s.generate(ctx, req)
	if err != nil {
		return audio.Signal{}, err
	}

	sig, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return audio.Signal{}, fmt.Errorf("tts: decode reply: %w", err)
	}

	s.logger.Debug("synthesized", "words", len(strings.Fields(req.Text)), "duration", sig.Duration(), "rate", sig.SampleRate)

	return sig, nil
}

func (s *HTTPSynthesizer) generate(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tts: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+apiGenerateSpeech, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeWAV)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts: request to %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, contentTypeWAV) && !strings.HasPrefix(ct, "audio/x-wav") {
		return nil, fmt.Errorf("%w: %q", ErrContentType, ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read audio: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	return data, nil
}

// HealthCheck returns nil when the service health endpoint answers 200.
func (s *HTTPSynthesizer) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("tts: create health request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts: health check at %s: %w", s.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %s", ErrService, resp.Status)
	}

	return nil
}

func parseErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var er errorResponse

	err := json.Unmarshal(raw, &er)
	if err == nil && er.Detail != "" {
		return fmt.Errorf("%w (%s): %s (code: %s)", ErrService, resp.Status, er.Detail, er.ErrorCode)
	}

	return fmt.Errorf("%w (%s): %s", ErrService, resp.Status, strings.TrimSpace(string(raw)))
}
