package client

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/pkg/domain"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Credentials supplies the bearer token for outbound requests and is told when
// the ledger rejects it.
type Credentials interface {
	Token() string
	Invalidate(reason string)
}

// Envelope is the ledger's standard response wrapper.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Ack is the response to calls whose success body is not fixed by the ledger
// (registration, fraud decisions). Only an explicit "success": false is a failure.
type Ack struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Failed reports whether the ledger explicitly rejected the request.
func (a *Ack) Failed() bool {
	return a != nil && a.Success != nil && !*a.Success
}

// LoginResponse is the (unwrapped) body of a successful login.
type LoginResponse struct {
	Token  string    `json:"token"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	UserID domain.ID `json:"userId"`
}

// Client is the ledger API client.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the token source and unauthorized handler.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithPrefix("gateway")
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Auth ---

// Register creates a new identity on the ledger. It does not sign in.
func (c *Client) Register(ctx context.Context, p domain.Profile) (*Ack, error) {
	var ack Ack
	if err := c.Send(ctx, http.MethodPost, "/auth/register", p, &ack); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &ack, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.Send(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// --- Account ---

// CreateAccount opens the caller's bank account.
func (c *Client) CreateAccount(ctx context.Context) (*Envelope[*domain.Account], error) {
	env, err := sendEnvelope[*domain.Account](ctx, c, http.MethodPost, "/user/account", nil)
	if err != nil {
		return nil, fmt.Errorf("client.CreateAccount: %w", err)
	}
	return env, nil
}

// GetAccount fetches the caller's bank account.
func (c *Client) GetAccount(ctx context.Context) (*Envelope[*domain.Account], error) {
	env, err := sendEnvelope[*domain.Account](ctx, c, http.MethodGet, "/user/account", nil)
	if err != nil {
		return nil, fmt.Errorf("client.GetAccount: %w", err)
	}
	return env, nil
}

type amountRequest struct {
	Amount json.Number `json:"amount"`
}

type transferRequest struct {
	ToAccount string      `json:"toAccount"`
	Amount    json.Number `json:"amount"`
}

// Deposit credits the caller's account. The envelope carries the post-deposit account.
func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal) (*Envelope[*domain.Account], error) {
	req := amountRequest{Amount: json.Number(amount.String())}
	env, err := sendEnvelope[*domain.Account](ctx, c, http.MethodPost, "/user/deposit", req)
	if err != nil {
		return nil, fmt.Errorf("client.Deposit: %w", err)
	}
	return env, nil
}

// Transfer moves money from the caller's account to toAccount.
func (c *Client) Transfer(ctx context.Context, toAccount string, amount decimal.Decimal) (*Envelope[*domain.Transaction], error) {
	req := transferRequest{ToAccount: toAccount, Amount: json.Number(amount.String())}
	env, err := sendEnvelope[*domain.Transaction](ctx, c, http.MethodPost, "/user/transfer", req)
	if err != nil {
		return nil, fmt.Errorf("client.Transfer: %w", err)
	}
	return env, nil
}

// ListTransactions returns the caller's transaction history, newest first.
func (c *Client) ListTransactions(ctx context.Context) (*Envelope[[]domain.Transaction], error) {
	env, err := sendEnvelope[[]domain.Transaction](ctx, c, http.MethodGet, "/user/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("client.ListTransactions: %w", err)
	}
	return env, nil
}

// --- Admin ---

// ListUsers returns every registered user.
func (c *Client) ListUsers(ctx context.Context) (*Envelope[[]domain.User], error) {
	env, err := sendEnvelope[[]domain.User](ctx, c, http.MethodGet, "/admin/users", nil)
	if err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return env, nil
}

// ListAllTransactions returns every transaction on the ledger.
func (c *Client) ListAllTransactions(ctx context.Context) (*Envelope[[]domain.Transaction], error) {
	env, err := sendEnvelope[[]domain.Transaction](ctx, c, http.MethodGet, "/admin/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("client.ListAllTransactions: %w", err)
	}
	return env, nil
}

// ListFraudTransactions returns transactions the ledger flagged as fraud.
func (c *Client) ListFraudTransactions(ctx context.Context) (*Envelope[[]domain.Transaction], error) {
	env, err := sendEnvelope[[]domain.Transaction](ctx, c, http.MethodGet, "/admin/transactions/fraud", nil)
	if err != nil {
		return nil, fmt.Errorf("client.ListFraudTransactions: %w", err)
	}
	return env, nil
}

// DecideFraud records an administrator's verdict on a flagged transaction.
func (c *Client) DecideFraud(ctx context.Context, id domain.ID, decision domain.FraudDecision) (*Ack, error) {
	path := "/admin/transactions/" + url.PathEscape(id.String()) + "/fraud-decision"
	body := map[string]domain.FraudDecision{"decision": decision}
	var ack Ack
	if err := c.Send(ctx, http.MethodPost, path, body, &ack); err != nil {
		return nil, fmt.Errorf("client.DecideFraud: %w", err)
	}
	return &ack, nil
}

func sendEnvelope[T any](ctx context.Context, c *Client, method, path string, body any) (*Envelope[T], error) {
	var env Envelope[T]
	if err := c.Send(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Send dispatches exactly one request. A 401 response invalidates the
// credentials before the error is returned; nothing is retried.
func (c *Client) Send(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.log.Debug("request settled",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		httpErr := readHTTPError(resp)
		if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
			c.log.Warn("credentials rejected", "path", path, "request_id", reqID)
			c.creds.Invalidate(httpErr.Message)
		}
		return httpErr
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readHTTPError(resp *http.Response) *HTTPError {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
	}
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &apiErr) == nil {
		msg = apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg, Body: body}
}
