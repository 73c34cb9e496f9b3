package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/telemetry"
)

const (
	oauthPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	transactionType = "CustomerPayBillOnline"
	maxBodyBytes    = 1 << 20
)

var errServerStatus = errors.New("provider returned a server error")

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	BaseURL        string
	Timeout        time.Duration
}

type STKPushRequest struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	AccountReference string
	TransactionDesc  string
	CallbackURL      string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type STKQueryResponse struct {
	ResponseCode        string      `json:"ResponseCode"`
	ResponseDescription string      `json:"ResponseDescription"`
	MerchantRequestID   string      `json:"MerchantRequestID"`
	CheckoutRequestID   string      `json:"CheckoutRequestID"`
	ResultCode          json.Number `json:"ResultCode"`
	ResultDesc          string      `json:"ResultDesc"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type rawResponse struct {
	status int
	body   []byte
}

// Client talks to the Safaricom Daraja API. Every operation fetches a fresh
// access token.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "mpesa",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Authenticate(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+oauthPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	raw, err := c.do("oauth", req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}
	if raw.status != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthFailure, raw.status)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(raw.body, &token); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", ErrAuthFailure, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailure)
	}
	return token.AccessToken, nil
}

// InitiateSTKPush sends the payment prompt to the payer's phone. A nil error
// only means the provider accepted the push, not that the payer paid.
func (c *Client) InitiateSTKPush(ctx context.Context, r STKPushRequest) (*STKPushResponse, error) {
	phone, err := NormalizePhone(r.PhoneNumber)
	if err != nil {
		return nil, err
	}
	amount := r.Amount.IntPart()
	if amount < 1 {
		return nil, ErrInvalidAmount
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          Password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   transactionType,
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       r.CallbackURL,
		AccountReference:  r.AccountReference,
		TransactionDesc:   r.TransactionDesc,
	}

	raw, err := c.postJSON(ctx, "stkpush", stkPushPath, token, payload)
	if err != nil {
		return nil, err
	}

	var resp STKPushResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode stkpush response: %v", ErrTransportFailure, err)
	}
	if resp.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: stkpush response has no CheckoutRequestID", ErrTransportFailure)
	}
	return &resp, nil
}

// QuerySTKPush asks the provider for the current state of an earlier push.
func (c *Client) QuerySTKPush(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(c.now())
	payload := stkQueryPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          Password(c.cfg.Shortcode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	raw, err := c.postJSON(ctx, "stkquery", stkQueryPath, token, payload)
	if err != nil {
		return nil, err
	}

	var resp STKQueryResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode stkquery response: %v", ErrTransportFailure, err)
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, op, path, token string, payload any) (*rawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(op, req)
	if err != nil && !errors.Is(err, errServerStatus) {
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}
	if raw.status != http.StatusOK {
		return nil, newProviderError(op, raw)
	}
	return raw, nil
}

// do runs the request through the circuit breaker. Transport errors and 5xx
// answers count as breaker failures; a 5xx still returns its response.
func (c *Client) do(op string, req *http.Request) (*rawResponse, error) {
	start := time.Now()
	defer func() {
		telemetry.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return raw, errServerStatus
		}
		return raw, nil
	})

	raw, _ := out.(*rawResponse)
	if err != nil && raw == nil {
		telemetry.Logger.Warn("M-PESA request failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, err
	}
	return raw, err
}

func newProviderError(op string, raw *rawResponse) *ProviderError {
	perr := &ProviderError{Operation: op, StatusCode: raw.status, Body: raw.body}
	var body struct {
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(raw.body, &body) == nil {
		perr.ErrorCode = body.ErrorCode
		perr.ErrorMessage = body.ErrorMessage
	}
	return perr
}
