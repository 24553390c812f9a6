package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sprite-ai/hunkr/internal/model"
)

const defaultTimeout = 60 * time.Second

// Client calls a remote classification service over HTTP. Every operation
// is a JSON POST of a Request to {baseURL}/{classify,group,narrate}.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient gets one with
// timeout, or a 60s default when timeout is zero.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

type classifyResponse struct {
	Labels map[string][]string `json:"labels"`
}

type groupResponse struct {
	Groups []model.HunkGroup `json:"groups"`
}

type narrateResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Classify implements Classifier.
func (c *Client) Classify(ctx context.Context, req Request) (map[string][]string, error) {
	var resp classifyResponse
	if err := c.post(ctx, "classify", req, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

// Group implements Grouper.
func (c *Client) Group(ctx context.Context, req Request) ([]model.HunkGroup, error) {
	var resp groupResponse
	if err := c.post(ctx, "group", req, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// Narrate implements Narrator.
func (c *Client) Narrate(ctx context.Context, req Request) (string, error) {
	var resp narrateResponse
	if err := c.post(ctx, "narrate", req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, op string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e errorResponse
		if json.Unmarshal(msg, &e) == nil && e.Error != "" {
			msg = []byte(e.Error)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s: %w: HTTP %d: %s", op, ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return fmt.Errorf("%s: HTTP %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}

// New returns a Client for url, or Local when url is empty.
func New(url string, timeout time.Duration) Service {
	if url == "" {
		return Local{}
	}
	return NewClient(url, timeout, nil)
}
