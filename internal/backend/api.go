package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds the short request/response calls. The summary call
// waits on model inference and gets a longer leash.
const (
	DefaultTimeout = 15 * time.Second
	SummaryTimeout = 3 * time.Minute
	UploadTimeout  = 5 * time.Minute
)

// API issues the short-lived HTTP calls against livecapd.
type API struct {
	BaseURL string
	Client  *http.Client
}

// NewAPI creates an API client for the given base URL, e.g.
// "http://127.0.0.1:5000".
func NewAPI(baseURL string) *API {
	return &API{BaseURL: baseURL, Client: &http.Client{}}
}

// PreCheck asks whether a compiled subtitle document already exists for the
// filename. found is true when the daemon returned the document; a 204 means
// the caller should proceed with the streaming upload path.
func (a *API) PreCheck(ctx context.Context, filename string) (doc string, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"filename": filename})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/pre-upload", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("pre-check: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("pre-check: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var pr PreCheckResponse
		if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
			return "", false, fmt.Errorf("pre-check: decode: %w", err)
		}
		return pr.Subtitles, true, nil
	case http.StatusNoContent:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("pre-check: %s", serverError(resp))
	}
}

// Upload posts the media file as a multipart body. The daemon starts
// transcribing in the background and answers 202 before any subtitles exist.
func (a *API) Upload(ctx context.Context, path string) (UploadResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload: open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload: create form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResponse{}, fmt.Errorf("upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResponse{}, fmt.Errorf("upload: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/upload", &buf)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.Client.Do(req)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("upload: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return UploadResponse{}, fmt.Errorf("upload: %s", serverError(resp))
	}

	var ur UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return UploadResponse{}, fmt.Errorf("upload: decode: %w", err)
	}
	return ur, nil
}

// Summarize requests the long-form summary for a finished transcription.
func (a *API) Summarize(ctx context.Context, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, SummaryTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"filename": filename})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/summary", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("summary: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary: %s", serverError(resp))
	}

	var sr SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("summary: decode: %w", err)
	}
	return sr.Summary, nil
}

// Status reports daemon readiness.
func (a *API) Status(ctx context.Context) (StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/status", nil)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("status: new request: %w", err)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("status: request failed: %w", err)
	}
	defer resp.Body.Close()

	var sr StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return StatusResponse{}, fmt.Errorf("status: decode: %w", err)
	}
	return sr, nil
}

// serverError extracts the server-provided message from an error body so it
// can be surfaced verbatim, falling back to the HTTP status.
func serverError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("unexpected http status %s", resp.Status)
}
