// Package directory is the HTTP client for the remote UDICTI developer directory.
package directory

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

	"github.com/Sirily23/udicti-cli/internal/model"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "udicti-cli"
	maxErrorBody     = 4 << 10
)

// ErrUnavailable is matched by every RemoteError: the directory could not
// serve the request and callers should fall back to the local registry.
var ErrUnavailable = errors.New("directory unavailable")

// RemoteError describes a failed directory call.
type RemoteError struct {
	// Op is the operation, e.g. "list developers".
	Op string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Message is the server's error message, if it sent one.
	Message string

	// Err is the underlying transport or decode error.
	Err error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: directory returned %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: directory returned %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrUnavailable.Error()
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) hold for any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrUnavailable
}

// Timeout reports whether the call failed because it ran out of time.
func (e *RemoteError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// SubmitResult is the directory's answer to a successful submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// listResponse is the GET /developers body.
type listResponse struct {
	Developers []model.Developer `json:"developers"`
	Count      int               `json:"count"`
}

// submitRequest is the POST /developers body.
type submitRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	GitHub    string   `json:"github"`
	Interests []string `json:"interests,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}

// Client talks to the directory API. Each call is a single attempt.
type Client struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout bounds every call. It applies to the client given by
// WithHTTPClient too, without modifying the caller's client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a Client for the API rooted at baseURL (e.g. "https://host/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: defaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchDevelopers lists every developer in the directory. Any failure is a
// *RemoteError, never an empty success.
func (c *Client) FetchDevelopers(ctx context.Context) ([]model.Developer, error) {
	const op = "list developers"

	var body listResponse
	if err := c.do(ctx, op, http.MethodGet, "/developers", nil, &body); err != nil {
		return nil, err
	}
	if body.Developers == nil {
		return nil, &RemoteError{Op: op, Err: errors.New("response has no developers field")}
	}

	devs := make([]model.Developer, 0, len(body.Developers))
	for _, d := range body.Developers {
		devs = append(devs, d.Normalized())
	}
	return devs, nil
}

// SubmitDeveloper registers or overwrites (by email) a developer remotely.
// Missing name, email, or github fails locally with a *model.ValidationError.
func (c *Client) SubmitDeveloper(ctx context.Context, d model.Developer) (*SubmitResult, error) {
	const op = "submit developer"

	d = d.Normalized()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	req := submitRequest{
		Name:      d.Name,
		Email:     d.Email,
		GitHub:    d.GitHub,
		Interests: d.Interests,
		Skills:    d.Skills,
	}

	var result SubmitResult
	if err := c.do(ctx, op, http.MethodPost, "/developers", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &RemoteError{Op: op, Message: "directory did not confirm the submission"}
	}
	return &result, nil
}

// do performs a JSON request and decodes a 2xx response into dst.
func (c *Client) do(ctx context.Context, op, method, path string, payload, dst any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("marshaling request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RemoteError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &RemoteError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// remoteError reads an error response from the directory.
func remoteError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errResp struct {
		Error string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &errResp) == nil {
		msg = errResp.Error
	}
	return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
