package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clicknail/internal/domain"
)

// faceInstruction is sent alongside an uploaded photo. The model must answer
// with nothing but the physical description so it can be folded into the
// generation prompt verbatim.
const faceInstruction = "Describe the person's face in this image in extreme detail (gender, age, hair style and color, eye color, facial hair, glasses, distinct features). Output ONLY the physical description."

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	ImagenModel string
	HTTPClient  *http.Client
	Logger      zerolog.Logger
	// MaxRetries bounds re-attempts after transient transport failures.
	// Zero preserves single-shot behavior.
	MaxRetries int
}

// Client talks to the Generative Language API. It covers the two calls the
// thumbnail pipeline needs: a vision pass that describes an uploaded face and
// the Imagen text-to-image call.
type Client struct {
	apiKey      string
	baseURL     string
	visionModel string
	imagenModel string
	httpClient  *http.Client
	logger      zerolog.Logger
	maxRetries  int
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; one with a generation-friendly timeout is created.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	visionModel := opts.VisionModel
	if visionModel == "" {
		visionModel = "gemini-1.5-flash"
	}
	imagenModel := opts.ImagenModel
	if imagenModel == "" {
		imagenModel = "imagen-4.0-generate-001"
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		visionModel: visionModel,
		imagenModel: imagenModel,
		httpClient:  httpClient,
		logger:      opts.Logger,
		maxRetries:  retries,
	}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type imagenPredictRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type imagenPredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// GenerateImage asks Imagen for exactly one image of the prompt at the given
// aspect ratio and returns the raw image bytes. A response without image data
// is a generation failure.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	if aspectRatio == "" {
		aspectRatio = domain.DefaultAspectRatio
	}
	payload := imagenPredictRequest{
		Instances:  []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{SampleCount: 1, AspectRatio: aspectRatio},
	}

	var resp imagenPredictResponse
	path := fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imagenModel))
	if err := c.invoke(ctx, path, payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("%w: no image in provider response", domain.ErrGeneration)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image bytes: %v", domain.ErrGeneration, err)
	}

	c.logger.Debug().
		Str("model", c.imagenModel).
		Str("aspect_ratio", aspectRatio).
		Int("bytes", len(data)).
		Msg("genai: image generated")

	return data, nil
}

// DescribeFace sends the uploaded photo to the vision model and returns the
// textual physical description. Callers treat any error as non-fatal.
func (c *Client) DescribeFace(ctx context.Context, imageBytes []byte) (string, error) {
	payload := generateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: faceInstruction},
				{InlineData: &geminiInlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(imageBytes),
				}},
			},
		}},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.visionModel))
	if err := c.invoke(ctx, path, payload, &resp); err != nil {
		return "", err
	}
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("no description in provider response")
}

// invoke posts a JSON payload and decodes the JSON response. Transient
// failures (transport errors, 429, 5xx) are retried up to maxRetries times
// with jittered backoff; client errors are returned immediately.
func (c *Client) invoke(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			backoff += time.Duration(rand.Int63n(int64(250 * time.Millisecond)))
			c.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("genai: retrying after transient failure")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retryable, err := c.invokeOnce(ctx, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *Client) invokeOnce(ctx context.Context, path string, body []byte, out any) (retryable bool, err error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return retryable, fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return retryable, fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return retryable, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode gemini response: %w", err)
	}
	return false, nil
}
