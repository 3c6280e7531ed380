// Package client is the Go SDK for the CV optimization pipeline: upload,
// status polling, section review, generation, and download against the
// cv-optimizer HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// API is the narrow surface the poller, review session, and CLI consume.
type API interface {
	Upload(ctx context.Context, path string) (string, error)
	GetStatus(ctx context.Context, cvID string) (*Status, error)
	GetImprovements(ctx context.Context, cvID string) (*Improvements, error)
	UpdateSection(ctx context.Context, cvID, sectionID string, content *string, status string) (*Section, error)
	Generate(ctx context.Context, cvID string) (*GenerateResult, error)
	Download(ctx context.Context, cvID, format, destPath string) error
}

// Client talks to the cv-optimizer server over HTTP.
type Client struct {
	rest    *resty.Client
	baseURL string
}

var _ API = (*Client)(nil)

// New builds a client for the given server. token may be empty when the
// server runs with auth disabled.
func New(baseURL, token string) *Client {
	rest := resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))
	if token != "" {
		rest.SetAuthToken(token)
	}
	return &Client{rest: rest, baseURL: baseURL}
}

// Upload validates the file locally, then posts it and returns the cv id.
// A validation reject makes zero network calls.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if err := ValidateUploadFile(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &ValidationError{Message: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer f.Close()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetFileReader("file", stripDir(path), f).
		Post("/cv/upload")
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if err := c.checkStatus("upload", resp); err != nil {
		return "", err
	}

	cvID := gjson.GetBytes(resp.Body(), "data.cv_id").String()
	if cvID == "" {
		return "", &TransportError{Op: "upload", StatusCode: resp.StatusCode(), Err: fmt.Errorf("response missing cv_id")}
	}
	return cvID, nil
}

func (c *Client) GetStatus(ctx context.Context, cvID string) (*Status, error) {
	var out Status
	if err := c.getJSON(ctx, "status", fmt.Sprintf("/cv/%s/status", cvID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetImprovements(ctx context.Context, cvID string) (*Improvements, error) {
	var out Improvements
	if err := c.getJSON(ctx, "improvements", fmt.Sprintf("/cv/%s/improvements", cvID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSection backs both the approve and edit actions. content is nil for
// a plain approval, which leaves any prior user edit in place server-side.
func (c *Client) UpdateSection(ctx context.Context, cvID, sectionID string, content *string, status string) (*Section, error) {
	body := map[string]any{"status": status}
	if content != nil {
		body["content"] = *content
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Patch(fmt.Sprintf("/cv/%s/sections/%s", cvID, sectionID))
	if err != nil {
		return nil, &TransportError{Op: "update section", Err: err}
	}
	if err := c.checkStatus("update section", resp); err != nil {
		return nil, err
	}

	var out Section
	if err := json.Unmarshal([]byte(gjson.GetBytes(resp.Body(), "data").Raw), &out); err != nil {
		return nil, &TransportError{Op: "update section", StatusCode: resp.StatusCode(), Err: err}
	}
	return &out, nil
}

func (c *Client) Generate(ctx context.Context, cvID string) (*GenerateResult, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/cv/%s/generate", cvID))
	if err != nil {
		return nil, &TransportError{Op: "generate", Err: err}
	}
	if err := c.checkStatus("generate", resp); err != nil {
		return nil, err
	}

	var out GenerateResult
	if err := json.Unmarshal([]byte(gjson.GetBytes(resp.Body(), "data").Raw), &out); err != nil {
		return nil, &TransportError{Op: "generate", StatusCode: resp.StatusCode(), Err: err}
	}
	if out.DocxURL == "" {
		return nil, &TransportError{Op: "generate", StatusCode: resp.StatusCode(), Err: fmt.Errorf("response missing docx_url")}
	}
	return &out, nil
}

// Download validates the format locally, then streams the artifact to
// destPath. An invalid format makes zero network calls.
func (c *Client) Download(ctx context.Context, cvID, format, destPath string) error {
	if err := ValidateDownloadFormat(format); err != nil {
		return err
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetOutput(destPath).
		Get(fmt.Sprintf("/cv/%s/download?format=%s", cvID, format))
	if err != nil {
		return &TransportError{Op: "download", Err: err}
	}
	return c.checkStatus("download", resp)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.rest.R().SetContext(ctx).Get(path)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if err := c.checkStatus(op, resp); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(gjson.GetBytes(resp.Body(), "data").Raw), out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: err}
	}
	return nil
}

// checkStatus maps HTTP statuses onto the error taxonomy.
func (c *Client) checkStatus(op string, resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case code >= 400 && code < 500:
		message := gjson.GetBytes(resp.Body(), "message").String()
		if message == "" {
			message = fmt.Sprintf("%s rejected with status %d", op, code)
		}
		return &ValidationError{Message: message}
	default:
		return &TransportError{Op: op, StatusCode: code}
	}
}

func stripDir(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
