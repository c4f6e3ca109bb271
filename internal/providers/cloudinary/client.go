package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clicknail/internal/domain"
)

// Options configures the upload API client. Credentials come from the startup
// config; they are never re-parsed here.
type Options struct {
	CloudName  string
	APIKey     string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements the subset of the Cloudinary upload API the thumbnail
// pipeline needs: signed image uploads and explicit artifact deletion.
type Client struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// UploadResult is the provider response for a stored image.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com/v1_1"
	}
	return &Client{
		cloudName:  opts.CloudName,
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Configured reports whether credentials are present. The server can start
// without them; generation requests then fail with an upload error instead of
// panicking at boot.
func (c *Client) Configured() bool {
	return c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// UploadFile uploads the image at filePath and returns its public URL data.
func (c *Client) UploadFile(ctx context.Context, filePath string) (*UploadResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open artifact: %v", domain.ErrUpload, err)
	}
	defer f.Close()
	return c.Upload(ctx, f, path.Base(filePath))
}

// Upload streams image bytes to the signed upload endpoint.
func (c *Client) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: cloudinary credentials are not configured", domain.ErrUpload)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			for k, v := range params {
				if err := writer.WriteField(k, v); err != nil {
					return err
				}
			}
			if err := writer.WriteField("api_key", c.apiKey); err != nil {
				return err
			}
			if err := writer.WriteField("signature", c.sign(params)); err != nil {
				return err
			}
			part, err := writer.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, r); err != nil {
				return err
			}
			return writer.Close()
		}()
		pw.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrUpload, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpload, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpload, err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("%w: response missing secure_url", domain.ErrUpload)
	}

	c.logger.Debug().
		Str("public_id", result.PublicID).
		Int64("bytes", result.Bytes).
		Msg("cloudinary: image uploaded")

	return &result, nil
}

// Destroy removes an uploaded image. Only used when remote artifact deletion
// is explicitly enabled.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	if !c.Configured() {
		return fmt.Errorf("%w: cloudinary credentials are not configured", domain.ErrUpload)
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{"public_id": publicID, "timestamp": timestamp}

	form := make([]string, 0, 4)
	for k, v := range params {
		form = append(form, k+"="+v)
	}
	form = append(form, "api_key="+c.apiKey, "signature="+c.sign(params))

	endpoint := fmt.Sprintf("%s/%s/image/destroy", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return fmt.Errorf("destroy artifact: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("destroy artifact: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// sign produces the request signature: the SHA-1 hex digest of the sorted
// parameters joined with '&', followed by the API secret.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

// PublicIDFromURL extracts the public id from a delivery URL so a stored
// secure_url is enough to destroy the remote artifact later.
func PublicIDFromURL(rawURL string) string {
	idx := strings.Index(rawURL, "/upload/")
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+len("/upload/"):]
	// strip the version segment, e.g. v1712345678/
	if strings.HasPrefix(rest, "v") {
		if slash := strings.Index(rest, "/"); slash > 0 {
			if _, err := strconv.Atoi(rest[1:slash]); err == nil {
				rest = rest[slash+1:]
			}
		}
	}
	if dot := strings.LastIndex(rest, "."); dot > 0 {
		rest = rest[:dot]
	}
	return rest
}
