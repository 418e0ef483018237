package ca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/stackway/edgecert/core/logger"
)

// Config holds the CA API connection settings.
type Config struct {
	BaseURL string `env:"CA_API_URL,required"`
	APIKey  string `env:"CA_API_KEY,required"`

	// RequestTimeout bounds a single HTTP round trip, independent of the
	// CA's own internal timeouts.
	RequestTimeout time.Duration `env:"CA_REQUEST_TIMEOUT" envDefault:"30s"`

	// DownloadRetries is the retry budget for Download after the first
	// attempt.
	DownloadRetries int `env:"CA_DOWNLOAD_RETRIES" envDefault:"1"`

	// DownloadRetryInterval is the base backoff between download attempts.
	DownloadRetryInterval time.Duration `env:"CA_DOWNLOAD_RETRY_INTERVAL" envDefault:"5s"`
}

// APIClient talks to a REST-style certificate authority API. It implements
// both Client and AdminClient.
type APIClient struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ Client      = (*APIClient)(nil)
	_ AdminClient = (*APIClient)(nil)
)

// APIOption configures an APIClient.
type APIOption func(*APIClient)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *APIClient) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithLogger sets the logger for CA call diagnostics.
func WithLogger(log *slog.Logger) APIOption {
	return func(a *APIClient) {
		if log != nil {
			a.logger = log.With(logger.Component("ca"))
		}
	}
}

// NewAPIClient creates a CA API client.
func NewAPIClient(cfg Config, opts ...APIOption) (*APIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrRequestFailed)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %w", ErrRequestFailed, err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrRequestFailed)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DownloadRetries < 0 {
		cfg.DownloadRetries = 0
	}
	if cfg.DownloadRetryInterval <= 0 {
		cfg.DownloadRetryInterval = 5 * time.Second
	}

	a := &APIClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.Discard(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

type createCertificateRequest struct {
	CSR              string `json:"csr"`
	ValidationMethod string `json:"validation_method"`
}

type createCertificateResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Validation *struct {
		FileName    string `json:"file_name"`
		FileContent string `json:"file_content"`
	} `json:"validation"`
}

// CreateCertificate submits the CSR and returns a draft certificate handle
// carrying the HTTP validation data.
func (a *APIClient) CreateCertificate(ctx context.Context, csrPEM string) (*CertificateHandle, error) {
	var resp createCertificateResponse
	err := a.do(ctx, http.MethodPost, "/certificates", createCertificateRequest{
		CSR:              csrPEM,
		ValidationMethod: "HTTP_CSR_HASH",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDraftRejected, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: CA returned no certificate id", ErrDraftRejected)
	}

	handle := &CertificateHandle{ID: resp.ID, Status: resp.Status}
	if resp.Validation != nil {
		handle.Challenge = &ChallengeArtifact{
			FileName:    resp.Validation.FileName,
			FileContent: resp.Validation.FileContent,
		}
	}

	a.logger.InfoContext(ctx, "certificate draft created", logger.CertificateID(handle.ID))
	return handle, nil
}

// ExtractHTTPChallenge returns the validation artifact captured at creation.
func (a *APIClient) ExtractHTTPChallenge(handle *CertificateHandle) (*ChallengeArtifact, error) {
	if handle == nil || handle.Challenge == nil || handle.Challenge.FileName == "" {
		return nil, ErrMissingChallenge
	}
	return handle.Challenge, nil
}

type verificationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RequestVerification asks the CA to fetch the challenge over HTTP. The call
// blocks until the CA reports an outcome; bound it with a context timeout.
func (a *APIClient) RequestVerification(ctx context.Context, certificateID string) error {
	var resp verificationResponse
	path := "/certificates/" + url.PathEscape(certificateID) + "/challenges"
	if err := a.do(ctx, http.MethodPost, path, map[string]string{
		"validation_method": "HTTP_CSR_HASH",
	}, &resp); err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Error)
	}
	return nil
}

// Download fetches the issued certificate with a bounded retry budget.
// ErrNotReady and transient transport failures are retried; everything else
// fails the attempt immediately.
func (a *APIClient) Download(ctx context.Context, certificateID string) (*DownloadedCertificate, error) {
	path := "/certificates/" + url.PathEscape(certificateID) + "/download"

	backoff := retry.WithMaxRetries(
		uint64(a.config.DownloadRetries),
		retry.NewConstant(a.config.DownloadRetryInterval),
	)

	var result DownloadedCertificate
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var resp DownloadedCertificate
		if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			if errors.Is(err, ErrNotFound) {
				return retry.RetryableError(fmt.Errorf("%w: %w", ErrNotReady, err))
			}
			return err
		}
		if resp.Certificate == "" || resp.CABundle == "" {
			a.logger.InfoContext(ctx, "certificate not ready yet",
				logger.CertificateID(certificateID), logger.RetryCount(attempt))
			return retry.RetryableError(ErrNotReady)
		}
		result = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return nil, fmt.Errorf("%w after %d attempts", ErrNotReady, attempt)
		}
		return nil, err
	}

	return &result, nil
}

type listResponse struct {
	Results []CertificateInfo `json:"results"`
}

// List returns remote certificates, optionally filtered by status.
func (a *APIClient) List(ctx context.Context, status string) ([]CertificateInfo, error) {
	path := "/certificates"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var resp listResponse
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Get returns details for a single remote certificate.
func (a *APIClient) Get(ctx context.Context, certificateID string) (*CertificateInfo, error) {
	var resp CertificateInfo
	path := "/certificates/" + url.PathEscape(certificateID)
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the remote status string for a certificate.
func (a *APIClient) Status(ctx context.Context, certificateID string) (string, error) {
	info, err := a.Get(ctx, certificateID)
	if err != nil {
		return "", err
	}
	return info.Status, nil
}

// Cancel deletes a draft or pending certificate order.
func (a *APIClient) Cancel(ctx context.Context, certificateID string) error {
	path := "/certificates/" + url.PathEscape(certificateID)
	return a.do(ctx, http.MethodDelete, path, nil, nil)
}

// Revoke revokes an issued certificate.
func (a *APIClient) Revoke(ctx context.Context, certificateID, reason string) error {
	path := "/certificates/" + url.PathEscape(certificateID) + "/revoke"
	return a.do(ctx, http.MethodPost, path, map[string]string{"reason": reason}, nil)
}

// do performs one JSON round trip against the CA API.
func (a *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w (%s %s)", ErrNotFound, method, path)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrRequestFailed, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrRequestFailed, err)
	}
	return nil
}
