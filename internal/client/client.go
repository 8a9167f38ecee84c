// Package client is the HTTP client the partner details panel uses to talk to the API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"affiliate/internal/service"
	"affiliate/pkg/cachekey"
	"affiliate/pkg/pagination"

	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// MessageOf returns the server-reported message of err, or fallback
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Client calls the API for one workspace with a bearer token
type Client struct {
	baseURL     string
	workspaceID string
	token       string
	httpClient  *http.Client
	logger      *zap.Logger
}

func New(baseURL, workspaceID, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		workspaceID: workspaceID,
		token:       token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithHTTPClient swaps the transport, e.g. for tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) WorkspaceID() string { return c.workspaceID }

func (c *Client) ApprovePartner(ctx context.Context, programID, partnerID, linkID string) error {
	body := service.ApprovePartnerRequest{WorkspaceID: c.workspaceID, ProgramID: programID, PartnerID: partnerID, LinkID: linkID}
	return c.do(ctx, http.MethodPost, "/api/partners/approve?workspaceId="+c.workspaceID, body, nil)
}

func (c *Client) RejectPartner(ctx context.Context, programID, partnerID string) error {
	body := service.RejectPartnerRequest{WorkspaceID: c.workspaceID, ProgramID: programID, PartnerID: partnerID}
	return c.do(ctx, http.MethodPost, "/api/partners/reject?workspaceId="+c.workspaceID, body, nil)
}

func (c *Client) CreateLink(ctx context.Context, req service.CreateLinkRequest) (service.LinkResponse, error) {
	var link service.LinkResponse
	err := c.do(ctx, http.MethodPost, "/api/links?workspaceId="+c.workspaceID, req, &link)
	return link, err
}

func (c *Client) GetPartner(ctx context.Context, programID, partnerID string) (service.EnrolledPartnerResponse, error) {
	var partner service.EnrolledPartnerResponse
	err := c.do(ctx, http.MethodGet, cachekey.Partner(c.workspaceID, programID, partnerID), nil, &partner)
	return partner, err
}

func (c *Client) GetApplication(ctx context.Context, programID, applicationID string) (service.ApplicationResponse, error) {
	var app service.ApplicationResponse
	err := c.do(ctx, http.MethodGet, cachekey.Application(c.workspaceID, programID, applicationID), nil, &app)
	return app, err
}

func (c *Client) ListPayouts(ctx context.Context, programID, partnerID string) ([]service.PayoutResponse, error) {
	var payouts []service.PayoutResponse
	err := c.do(ctx, http.MethodGet, cachekey.Payouts(c.workspaceID, programID, partnerID)+sheetSize(), nil, &payouts)
	return payouts, err
}

func (c *Client) ListPartnerLinks(ctx context.Context, programID, partnerID string) ([]service.LinkResponse, error) {
	var links []service.LinkResponse
	err := c.do(ctx, http.MethodGet, cachekey.Links(c.workspaceID, programID, partnerID)+sheetSize(), nil, &links)
	return links, err
}

func sheetSize() string {
	return "&pageSize=" + strconv.Itoa(pagination.SheetMaxItems)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			apiErr.Message, apiErr.Code = env.Error.Message, env.Error.Code
		}
		c.logger.Warn("api returned non-2xx status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
