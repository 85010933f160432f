// Package relayclient talks to the geometry relay over HTTP. It is shared by the host
// poller and the viewer reconciler.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"geometry-relay/internal/models"
)

// DefaultTimeout bounds every relay call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNotFound is returned when the relay has no snapshot for the query.
	ErrNotFound = errors.New("relay: not found")
	// ErrValidation is returned when the relay rejected the request as malformed.
	ErrValidation = errors.New("relay: request rejected")
)

// StatusError reports an unexpected HTTP status from the relay.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay: unexpected status %d: %s", e.StatusCode, e.Message)
}

// FetchResult is the outcome of a conditional snapshot fetch.
type FetchResult struct {
	Snapshot    *models.GeometrySnapshot
	ETag        string
	NotModified bool
}

// Client is an HTTP client for the relay API mounted at BaseURL (e.g. http://host:8080/api).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client with a fixed per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// IngestSnapshot pushes a full snapshot for its project.
func (c *Client) IngestSnapshot(ctx context.Context, snapshot *models.GeometrySnapshot) error {
	resp, err := c.send(ctx, http.MethodPost, "/geometry", nil, snapshot, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// FetchLatest fetches the latest snapshot for projectName (newest overall when empty).
// A non-empty etag is sent as If-None-Match; a 304 yields NotModified.
func (c *Client) FetchLatest(ctx context.Context, projectName, etag string) (*FetchResult, error) {
	headers := map[string]string{}
	if etag != "" {
		headers["If-None-Match"] = etag
	}
	resp, err := c.send(ctx, http.MethodGet, "/geometry/latest", projectQuery(projectName), nil, headers)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var snapshot models.GeometrySnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, errors.Wrap(err, "relay: could not decode snapshot")
		}
		return &FetchResult{Snapshot: &snapshot, ETag: resp.Header.Get("ETag")}, nil
	case http.StatusNotModified:
		tag := resp.Header.Get("ETag")
		if tag == "" {
			tag = etag
		}
		return &FetchResult{ETag: tag, NotModified: true}, nil
	default:
		return nil, statusError(resp)
	}
}

// Enqueue queues a command and returns the command id the relay recorded.
func (c *Client) Enqueue(ctx context.Context, cmd models.GeometryCommand) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/commands", nil, cmd, nil)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}
	var out models.EnqueueResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "relay: could not decode enqueue response")
	}
	return out.CommandID, nil
}

// DequeueNext takes the next pending command. It returns (nil, nil) when none is pending.
func (c *Client) DequeueNext(ctx context.Context, projectName string) (*models.GeometryCommand, error) {
	resp, err := c.send(ctx, http.MethodGet, "/commands/next", projectQuery(projectName), nil, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var cmd models.GeometryCommand
		if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
			return nil, errors.Wrap(err, "relay: could not decode command")
		}
		return &cmd, nil
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, statusError(resp)
	}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string) (*http.Response, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "relay: could not encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "relay: could not build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "relay: %s %s failed", method, path)
	}
	return resp, nil
}

func projectQuery(projectName string) url.Values {
	if strings.TrimSpace(projectName) == "" {
		return nil
	}
	return url.Values{"projectName": []string{projectName}}
}

func statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &body) != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return wrapMessage(ErrNotFound, body.Message)
	case http.StatusBadRequest:
		return wrapMessage(ErrValidation, body.Message)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: body.Message}
}

func wrapMessage(err error, message string) error {
	if message == "" {
		return errors.WithStack(err)
	}
	return errors.Wrap(err, message)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
