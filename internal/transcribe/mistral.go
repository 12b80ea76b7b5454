// Package transcribe turns recorded audio into text through the Mistral
// transcription API, so a warrior can dictate a task instead of typing it.
package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.mistral.ai/v1"
	DefaultModel   = "voxtral-mini-latest"

	defaultTimeout = 120 * time.Second
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond

	// MaxAudioBytes caps uploads; larger recordings should be split by the
	// client before sending.
	MaxAudioBytes = 25 << 20
)

// ErrNotConfigured is returned when no Mistral API key is set.
var ErrNotConfigured = errors.New("transcription not configured: missing Mistral API key")

// allowedContentTypes are the audio formats accepted for upload.
var allowedContentTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/mp4":  true,
	"audio/m4a":  true,
	"audio/wav":  true,
	"audio/webm": true,
	"audio/ogg":  true,
}

// Client calls the Mistral audio transcription endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a transcription client. An empty model uses DefaultModel.
// An empty apiKey yields a client whose Transcribe returns ErrNotConfigured.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	c := NewClient(apiKey, model)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ValidContentType reports whether ct is an accepted audio format.
func ValidContentType(ct string) bool {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return allowedContentTypes[strings.TrimSpace(strings.ToLower(ct))]
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio and returns the recognized text. filename is
// advisory; contentType must be one of the accepted audio formats.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if !ValidContentType(contentType) {
		return "", fmt.Errorf("unsupported audio content type %q", contentType)
	}

	// The body is buffered up front so rate-limit retries can resend it.
	body, formType, err := c.buildForm(audio, filename)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := range maxRetries {
		text, err := c.doTranscribe(ctx, body, formType)
		if err == nil {
			return text, nil
		}
		if !isRateLimit(err) {
			return "", err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) buildForm(audio io.Reader, filename string) ([]byte, string, error) {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("writing model field: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	n, err := io.Copy(part, io.LimitReader(audio, MaxAudioBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading audio: %w", err)
	}
	if n > MaxAudioBytes {
		return nil, "", fmt.Errorf("audio exceeds %d byte limit", MaxAudioBytes)
	}
	if n == 0 {
		return nil, "", errors.New("empty audio upload")
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return []byte(buf.String()), w.FormDataContentType(), nil
}

// rateLimitError is returned on HTTP 429.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

func isRateLimit(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (c *Client) doTranscribe(ctx context.Context, body []byte, formType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", formType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", &rateLimitError{status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("transcription failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return out.Text, nil
}
