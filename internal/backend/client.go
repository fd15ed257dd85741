package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bondrizz-funnel/internal/domain"
	"go.uber.org/zap"
)

// Client talks to the scoring, email and order API. It never retries: the
// funnel decides what a failure means for the user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for baseURL, e.g. "http://backend:8001/api".
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type submitRequest struct {
	Answers []domain.Answer `json:"answers"`
}

type emailRequest struct {
	Email    string `json:"email"`
	ResultID string `json:"quiz_result_id"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (c *Client) SubmitQuiz(ctx context.Context, answers []domain.Answer) (domain.Result, error) {
	var result domain.Result
	err := c.do(ctx, http.MethodPost, "/quiz/submit", submitRequest{Answers: answers}, &result)
	if err != nil {
		return domain.Result{}, networkFailure(err)
	}
	return result, nil
}

func (c *Client) FetchResult(ctx context.Context, resultID string) (domain.Result, error) {
	var result domain.Result
	err := c.do(ctx, http.MethodGet, "/quiz/result/"+url.PathEscape(resultID), nil, &result)
	if isStatus(err, http.StatusNotFound) {
		return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrResultNotFound, resultID)
	}
	if err != nil {
		return domain.Result{}, networkFailure(err)
	}
	return result, nil
}

func (c *Client) CaptureEmail(ctx context.Context, email, resultID string) error {
	err := c.do(ctx, http.MethodPost, "/email/capture", emailRequest{Email: email, ResultID: resultID}, nil)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrResultNotFound, resultID)
	}
	if err != nil {
		return networkFailure(err)
	}
	return nil
}

func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/order/create", req, &order); err != nil {
		return domain.Order{}, networkFailure(err)
	}
	return order, nil
}

func (c *Client) CompleteOrder(ctx context.Context, orderID string) error {
	err := c.do(ctx, http.MethodPost, "/order/complete/"+url.PathEscape(orderID), nil, nil)
	if isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	if err != nil {
		return networkFailure(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("backend response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func networkFailure(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
}
