package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies and updates the stored credential pair. Implemented
// by session.SQLiteStore.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// ErrSessionExpired is returned when a 401 could not be resolved by the
// refresh exchange. The stored credentials have already been cleared; the
// caller must route back to login.
var ErrSessionExpired = errors.New("session expired")

// APIError carries a server-supplied failure message for display.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Client talks to the returns HTTP API, attaching the stored bearer token
// and transparently performing a single refresh-and-replay on 401.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	upload    *http.Client
	tokens    TokenSource
	userAgent string
	log       *slog.Logger
}

const (
	defaultAPIBase   = "http://127.0.0.1:8000/api"
	defaultUserAgent = "kiosk/0.1"
	requestTimeout   = 15 * time.Second
	uploadTimeout    = 5 * time.Minute
)

// NewClient builds a Client for the given API base URL (scheme optional,
// path preserved). tokens may not be nil; logger nil uses slog.Default.
func NewClient(apiBase string, tokens TokenSource, logger *slog.Logger) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is nil")
	}
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		upload:    &http.Client{Timeout: uploadTimeout},
		tokens:    tokens,
		userAgent: defaultUserAgent,
		log:       logger,
	}, nil
}

// Login exchanges credentials for a token pair. Unauthenticated; the caller
// is responsible for storing the pair.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}
	var pair TokenPair
	req := request{method: http.MethodPost, path: "/auth/login/", body: body, contentType: "application/json"}
	if err := c.send(ctx, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Register creates a new account. Unauthenticated. The response carries a
// token pair so the fresh account is signed in immediately.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) (*RegisterResponse, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}
	var created RegisterResponse
	req := request{method: http.MethodPost, path: "/register/", body: body, contentType: "application/json"}
	if err := c.send(ctx, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	req := request{method: http.MethodGet, path: "/profile/", authed: true}
	if err := c.send(ctx, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListReturns fetches return requests. search is matched server-side against
// barcode, username, and email; empty fetches everything visible to the user.
func (c *Client) ListReturns(ctx context.Context, search string) ([]ReturnRequest, error) {
	req := request{method: http.MethodGet, path: "/return-requests/", authed: true}
	if s := strings.TrimSpace(search); s != "" {
		req.query = url.Values{"search": []string{s}}
	}
	var items []ReturnRequest
	if err := c.send(ctx, req, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateReturn submits one return request as a single multipart upload:
// a barcode text field plus one repeated media_files part per attachment.
func (c *Client) CreateReturn(ctx context.Context, barcode string, paths []string) (*ReturnRequest, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("barcode", barcode); err != nil {
		return nil, fmt.Errorf("write barcode field: %w", err)
	}
	for _, path := range paths {
		if err := writeFilePart(writer, path); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var created ReturnRequest
	req := request{
		method:      http.MethodPost,
		path:        "/return-requests/",
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
		authed:      true,
		upload:      true,
	}
	if err := c.send(ctx, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStatus transitions a return request and attaches optional staff
// notes. The status is validated client-side against the accepted set.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status, notes string) (*ReturnRequest, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	body, err := json.Marshal(map[string]string{"status": status, "admin_notes": notes})
	if err != nil {
		return nil, fmt.Errorf("encode status update: %w", err)
	}
	var updated ReturnRequest
	req := request{
		method:      http.MethodPatch,
		path:        fmt.Sprintf("/return-requests/%d/update_status/", id),
		body:        body,
		contentType: "application/json",
		authed:      true,
	}
	if err := c.send(ctx, req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Statistics fetches aggregate counts for the admin dashboard.
func (c *Client) Statistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	req := request{method: http.MethodGet, path: "/return-requests/statistics/", authed: true}
	if err := c.send(ctx, req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// request describes one API call. The body is held as bytes so a replay
// after token refresh rebuilds the request from scratch instead of reusing
// mutable request state.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	authed      bool
	upload      bool
}

func (c *Client) send(ctx context.Context, r request, dest any) error {
	return c.attempt(ctx, r, dest, 1)
}

// attempt performs the request once. On a 401 for an authenticated request
// it runs exactly one refresh exchange and replays the request with
// attempt=2; a 401 on the replay is surfaced as-is, so a request is never
// retried more than once.
func (c *Client) attempt(ctx context.Context, r request, dest any, attempt int) error {
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return err
	}

	if r.authed {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client := c.http
	if r.upload {
		client = c.upload
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && r.authed && attempt == 1 {
		drain(resp)
		if err := c.refreshAccessToken(ctx); err != nil {
			c.log.Warn("token refresh failed, clearing credentials", "error", err)
			if clearErr := c.tokens.Clear(ctx); clearErr != nil {
				c.log.Error("clear credentials", "error", clearErr)
			}
			return ErrSessionExpired
		}
		return c.attempt(ctx, r, dest, attempt+1)
	}

	defer drain(resp)

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token via the unauthenticated refresh endpoint and persists it.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}
	if refresh == "" {
		return fmt.Errorf("no refresh token stored")
	}

	body, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return fmt.Errorf("encode refresh: %w", err)
	}

	req, err := c.newHTTPRequest(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/refresh/",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute refresh: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}

	var payload struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if payload.Access == "" {
		return fmt.Errorf("refresh response missing access token")
	}
	return c.tokens.SetAccessToken(ctx, payload.Access)
}

func (c *Client) newHTTPRequest(ctx context.Context, r request) (*http.Request, error) {
	reqURL := c.endpoint(r.path, r.query)

	var body io.Reader
	if len(r.body) > 0 {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	return req, nil
}

func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

// apiError extracts the server-supplied message from an error response,
// falling back to a generic message keyed by status.
func (c *Client) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	message := ""
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "":
			message = payload.Message
		case payload.Error != "":
			message = payload.Error
		case payload.Detail != "":
			message = payload.Detail
		}
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

func writeFilePart(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", path, err)
	}
	defer file.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="media_files"; filename="%s"`, quoteEscaper.Replace(filepath.Base(path))))
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create attachment part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy attachment %s: %w", path, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
