// Package erp implements the ERP adapter clients: outbound XML document
// upload and the customs product attribute lookup, both served by the same
// basic-auth adapter endpoint.
package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/document"
	infraconfig "github.com/shipbridge/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the adapter (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Ensure EAdapterClient implements the processor's ERPClient port
var _ shippingapp.ERPClient = (*EAdapterClient)(nil)

// EAdapterClient posts outbound XML documents to the ERP adapter endpoint.
// One endpoint serves every operation; the operation name only drives
// logging and status bookkeeping.
type EAdapterClient struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
}

// EAdapterOption is a functional option for configuring EAdapterClient
type EAdapterOption func(*EAdapterClient)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(c *http.Client) EAdapterOption {
	return func(e *EAdapterClient) {
		e.httpClient = c
	}
}

// WithLogger sets a custom logger for EAdapterClient
func WithLogger(logger *zap.Logger) EAdapterOption {
	return func(e *EAdapterClient) {
		e.logger = logger
	}
}

// NewEAdapterClient creates a client from configuration.
func NewEAdapterClient(cfg *infraconfig.ErpAdapterConfig, opts ...EAdapterOption) (*EAdapterClient, error) {
	if cfg == nil {
		return nil, errors.New("erp adapter configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("erp adapter endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &EAdapterClient{
		endpoint: cfg.Endpoint,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Send posts one XML payload under the named operation and returns the
// adapter's response body verbatim. An adapter-level rejection (the response
// envelope carrying Status ERR) is an error even on HTTP 200.
func (e *EAdapterClient) Send(ctx context.Context, apiName, xmlPayload string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(xmlPayload))
	if err != nil {
		return "", fmt.Errorf("erp: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.SetBasicAuth(e.username, e.password)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("erp: %s request failed: %w", apiName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("erp: failed to read %s response: %w", apiName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("erp: %s rejected with HTTP %d: %s", apiName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if status, processingLog, rejected := adapterRejection(body); rejected {
		return "", fmt.Errorf("erp: %s returned status %s: %s", apiName, status, processingLog)
	}

	e.logger.Debug("erp document accepted", zap.String("api", apiName), zap.Int("bytes", len(xmlPayload)))
	return string(body), nil
}

// adapterRejection inspects an adapter response for a Status ERR envelope.
// Bodies that do not parse as XML are passed through untouched.
func adapterRejection(body []byte) (status, processingLog string, rejected bool) {
	root, err := document.Parse(body)
	if err != nil {
		return "", "", false
	}
	status = document.String(root, "UniversalResponse.Status", "")
	if status != "ERR" {
		return "", "", false
	}
	processingLog = document.String(root, "UniversalResponse.ProcessingLog", "")
	return status, processingLog, true
}
