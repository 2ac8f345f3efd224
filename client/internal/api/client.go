package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maynagashev/redactvault/models"
)

// DefaultTimeout bounds every request unless the caller configures otherwise.
const DefaultTimeout = 15 * time.Second

// Credentials supplies the bearer credential for authenticated calls.
type Credentials interface {
	Credential() (string, bool)
}

// Client is the vault review API.
type Client interface {
	// Register creates a reviewer account.
	Register(ctx context.Context, username, password string) error
	// Login exchanges username and password for an access token.
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	// RefreshToken exchanges the bound, still valid credential for a new one.
	RefreshToken(ctx context.Context) (*models.LoginResponse, error)
	// ListEntries returns one page of vault entries.
	ListEntries(ctx context.Context, page, pageSize int) (*models.Page, error)
	// GetEntry returns one entry with its feedback.
	GetEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	// ArchiveEntry marks the entry archived.
	ArchiveEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	// SubmitFeedback attaches or replaces the entry feedback.
	SubmitFeedback(ctx context.Context, id int64, req models.FeedbackRequest) (*models.VaultEntry, error)
	// RevertEntry restores the original text upstream. Irreversible.
	RevertEntry(ctx context.Context, id int64) (*models.VaultEntry, error)
	// GetStats returns display-only aggregates.
	GetStats(ctx context.Context) (*models.Stats, error)
	// WithCredentials returns a client bound to other credentials.
	// The receiver is not changed.
	WithCredentials(creds Credentials) Client
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// NewHTTPClient creates an API client. creds may be nil, in which case
// authenticated calls fail with ErrAuth without being sent.
func NewHTTPClient(baseURL string, timeout time.Duration, creds Credentials) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &httpClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
	}
}

func (c *httpClient) WithCredentials(creds Credentials) Client {
	return &httpClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		creds:      creds,
	}
}

func (c *httpClient) Register(ctx context.Context, username, password string) error {
	const op = "register"
	body := models.RegisterRequest{Username: username, Password: password}
	resp, err := c.do(ctx, op, http.MethodPost, "/api/v1/auth/register", nil, body, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return statusError(op, resp)
	}
	return nil
}

func (c *httpClient) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	const op = "login"
	body := models.LoginRequest{Username: username, Password: password}
	var out models.LoginResponse
	if err := c.call(ctx, op, http.MethodPost, "/api/v1/auth/login", nil, body, false, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%s: server returned empty token: %w", op, ErrTransport)
	}
	return &out, nil
}

func (c *httpClient) RefreshToken(ctx context.Context) (*models.LoginResponse, error) {
	const op = "refresh token"
	var out models.LoginResponse
	if err := c.call(ctx, op, http.MethodPost, "/api/v1/auth/refresh", nil, nil, true, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%s: server returned empty token: %w", op, ErrTransport)
	}
	return &out, nil
}

func (c *httpClient) ListEntries(ctx context.Context, page, pageSize int) (*models.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	var out models.Page
	if err := c.call(ctx, "list entries", http.MethodGet, "/api/v1/vault/entries", query, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	path := "/api/v1/vault/entries/" + strconv.FormatInt(id, 10)
	var out models.VaultEntry
	if err := c.call(ctx, "get entry", http.MethodGet, path, nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ArchiveEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	return c.entryCommand(ctx, "archive entry", id, "archive", nil)
}

func (c *httpClient) SubmitFeedback(
	ctx context.Context,
	id int64,
	req models.FeedbackRequest,
) (*models.VaultEntry, error) {
	return c.entryCommand(ctx, "submit feedback", id, "feedback", req)
}

func (c *httpClient) RevertEntry(ctx context.Context, id int64) (*models.VaultEntry, error) {
	return c.entryCommand(ctx, "revert entry", id, "revert", nil)
}

func (c *httpClient) GetStats(ctx context.Context) (*models.Stats, error) {
	var out models.Stats
	if err := c.call(ctx, "get stats", http.MethodGet, "/api/v1/vault/stats", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) entryCommand(
	ctx context.Context,
	op string,
	id int64,
	action string,
	body any,
) (*models.VaultEntry, error) {
	path := "/api/v1/vault/entries/" + strconv.FormatInt(id, 10) + "/" + action
	var out models.VaultEntry
	if err := c.call(ctx, op, http.MethodPost, path, nil, body, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call sends a request and decodes a 200 response into out.
func (c *httpClient) call(
	ctx context.Context,
	op, method, path string,
	query url.Values,
	body any,
	auth bool,
	out any,
) error {
	resp, err := c.do(ctx, op, method, path, query, body, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, ErrTransport, err)
	}
	return nil
}

func (c *httpClient) do(
	ctx context.Context,
	op, method, path string,
	query url.Values,
	body any,
	auth bool,
) (*http.Response, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("%s: build url: %w", op, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, marshalErr)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if err = c.setAuthHeader(req); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	return resp, nil
}

func (c *httpClient) setAuthHeader(req *http.Request) error {
	if c.creds == nil {
		return fmt.Errorf("no session: %w", ErrAuth)
	}
	token, ok := c.creds.Credential()
	if !ok || token == "" {
		return fmt.Errorf("no credential: %w", ErrAuth)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
