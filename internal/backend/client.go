// Package backend implements the HTTP client for the remote
// conversion/stems/lyrics service.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tejashwikalptaru/offtune/internal/domain"
	"github.com/tejashwikalptaru/offtune/internal/ports"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the backend base URL, e.g. "http://localhost:3000".
	BaseURL string

	// HTTPClient is the underlying HTTP client. Defaults to a client
	// with no timeout; callers bound requests through ctx instead,
	// since conversions legitimately run for minutes.
	HTTPClient *http.Client

	// Logger for request diagnostics. May be nil.
	Logger *slog.Logger
}

// Client talks to the conversion backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client from cfg.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

type convertResponse struct {
	Base64Buffer string `json:"base64Buffer"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	ID           string `json:"id,omitempty"`
}

type progressResponse struct {
	Progress float64 `json:"progress"`
}

type lyricsResponse struct {
	Lyrics []string `json:"lyrics"`
}

type stemStateResponse struct {
	State     string  `json:"state,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
	Ready     bool    `json:"ready"`
	Available bool    `json:"available"`
	ExpiresAt string  `json:"expiresAt,omitempty"`
}

type stemResultResponse struct {
	Ready            bool   `json:"ready"`
	Available        bool   `json:"available"`
	VocalsURL        string `json:"vocalsUrl,omitempty"`
	AccompanimentURL string `json:"accompanimentUrl,omitempty"`
	InstrumentalURL  string `json:"instrumentalUrl,omitempty"`
	ExpiresAt        string `json:"expiresAt,omitempty"`
}

// Convert submits a source URL for conversion and blocks until the
// terminal response arrives or ctx expires.
func (c *Client) Convert(ctx context.Context, sourceURL, requestID string) (ports.ConversionResult, error) {
	q := url.Values{}
	q.Set("url", sourceURL)
	q.Set("id", requestID)

	var resp convertResponse
	if err := c.getJSON(ctx, "/scraper/download-mp3?"+q.Encode(), &resp); err != nil {
		return ports.ConversionResult{}, err
	}

	audio, err := base64.StdEncoding.DecodeString(resp.Base64Buffer)
	if err != nil {
		return ports.ConversionResult{}, fmt.Errorf("%w: decode audio payload: %v", domain.ErrInvalidPayload, err)
	}
	return ports.ConversionResult{
		Audio:  audio,
		Title:  resp.Title,
		Author: resp.Author,
	}, nil
}

// Progress reads the conversion progress for a request id, clamped to [0,1].
func (c *Client) Progress(ctx context.Context, requestID string) (float64, error) {
	var resp progressResponse
	if err := c.getJSON(ctx, "/progress/"+url.PathEscape(requestID), &resp); err != nil {
		return 0, err
	}
	p := resp.Progress
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}

// ScrapeLyrics fetches lyric lines for a song name. linkIndex selects
// one of the backend's seven lyric sources.
func (c *Client) ScrapeLyrics(ctx context.Context, songName string, linkIndex int) ([]string, error) {
	q := url.Values{}
	q.Set("songName", songName)
	q.Set("linkIndex", fmt.Sprintf("%d", linkIndex))

	var resp lyricsResponse
	if err := c.getJSON(ctx, "/scraper/scrape-lyrics?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Lyrics, nil
}

// UploadForSeparation posts the song's audio as multipart form data.
func (c *Client) UploadForSeparation(ctx context.Context, songID, fileName, mime string, audio []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", mime)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("%w: build upload form: %v", domain.ErrUploadFailed, err)
	}
	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("%w: build upload form: %v", domain.ErrUploadFailed, err)
	}
	if err := writer.WriteField("songId", songID); err != nil {
		return fmt.Errorf("%w: build upload form: %v", domain.ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: build upload form: %v", domain.ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_music", &body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, c.errorFromResponse(resp))
	}
	return nil
}

// StemState reads the server-side state of a song's stem job.
func (c *Client) StemState(ctx context.Context, songID string) (domain.StemServerState, error) {
	var resp stemStateResponse
	if err := c.getJSON(ctx, "/stems/"+url.PathEscape(songID)+"/state", &resp); err != nil {
		return domain.StemServerState{}, err
	}
	return domain.StemServerState{
		State:     resp.State,
		Progress:  resp.Progress,
		Ready:     resp.Ready,
		Available: resp.Available,
		ExpiresAt: parseExpiry(resp.ExpiresAt),
	}, nil
}

// StemResult reads the terminal payload of a song's stem job.
func (c *Client) StemResult(ctx context.Context, songID string) (domain.StemResult, error) {
	var resp stemResultResponse
	if err := c.getJSON(ctx, "/stems/"+url.PathEscape(songID)+"/result", &resp); err != nil {
		return domain.StemResult{}, err
	}
	return domain.StemResult{
		Ready:            resp.Ready,
		Available:        resp.Available,
		VocalsURL:        resp.VocalsURL,
		AccompanimentURL: resp.AccompanimentURL,
		InstrumentalURL:  resp.InstrumentalURL,
		ExpiresAt:        parseExpiry(resp.ExpiresAt),
	}, nil
}

// StemCleanup asks the server to drop temporary job artifacts.
func (c *Client) StemCleanup(ctx context.Context, songID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stems/"+url.PathEscape(songID)+"/cleanup", nil)
	if err != nil {
		return fmt.Errorf("create cleanup request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}
	return nil
}

// FetchFile downloads a URL to a local path. Relative URLs resolve
// against the backend base URL.
func (c *Client) FetchFile(ctx context.Context, fileURL, destPath string) error {
	if strings.HasPrefix(fileURL, "/") {
		fileURL = c.baseURL + fileURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %v", domain.ErrDownloadFailed, c.errorFromResponse(resp))
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrStorageWriteFailure, destPath, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(destPath)
		return fmt.Errorf("%w: write %s: %v", domain.ErrDownloadFailed, destPath, err)
	}
	return f.Close()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", domain.ErrAcquisitionTimeout, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if c.logger != nil {
		c.logger.Debug("backend request",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("took", time.Since(start)))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse turns a non-2xx response into a BackendError,
// preferring the server's {error} field when the body parses as JSON.
func (c *Client) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	message := strings.TrimSpace(string(body))
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		message = parsed.Error
	}
	return &domain.BackendError{Status: resp.StatusCode, Message: message}
}

func parseExpiry(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Verify that Client implements the Backend interface
var _ ports.Backend = (*Client)(nil)
