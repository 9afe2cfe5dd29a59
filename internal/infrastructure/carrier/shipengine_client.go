// Package carrier implements the outbound carrier API client.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	infraconfig "github.com/shipbridge/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the carrier API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Ensure ShipEngineClient implements the processor's CarrierClient port
var _ shippingapp.CarrierClient = (*ShipEngineClient)(nil)

// ShipEngineClient submits label purchases to the ShipEngine v1 API.
type ShipEngineClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// ShipEngineOption is a functional option for configuring ShipEngineClient
type ShipEngineOption func(*ShipEngineClient)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(c *http.Client) ShipEngineOption {
	return func(s *ShipEngineClient) {
		s.httpClient = c
	}
}

// WithLogger sets a custom logger for ShipEngineClient
func WithLogger(logger *zap.Logger) ShipEngineOption {
	return func(s *ShipEngineClient) {
		s.logger = logger
	}
}

// NewShipEngineClient creates a client from configuration.
func NewShipEngineClient(cfg *infraconfig.CarrierConfig, opts ...ShipEngineOption) (*ShipEngineClient, error) {
	if cfg == nil {
		return nil, errors.New("carrier configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("carrier endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &ShipEngineClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
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

// apiError is the error envelope ShipEngine returns on 4xx/5xx responses.
type apiError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// CreateLabel posts the payload to the label purchase endpoint and decodes
// the carrier's response. Any non-2xx response is an ErrCarrierAPI carrying
// the carrier's own error messages when they can be decoded.
func (s *ShipEngineClient) CreateLabel(ctx context.Context, payload *shipping.CarrierPayload) (*shipping.CarrierResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierAPI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("carrier: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", shipping.ErrCarrierAPI, resp.StatusCode, errorDetail(respBody))
	}

	var out shipping.CarrierResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", shipping.ErrCarrierAPI, err)
	}
	if out.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: response carries no tracking number", shipping.ErrCarrierAPI)
	}

	s.logger.Debug("label purchased",
		zap.String("shipment_id", out.ShipmentID),
		zap.String("tracking_number", out.TrackingNumber),
	)
	return &out, nil
}

// errorDetail extracts the carrier's error messages from an error response
// body, falling back to the raw body when it does not decode.
func errorDetail(body []byte) string {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		detail := envelope.Errors[0].Message
		for _, e := range envelope.Errors[1:] {
			detail += "; " + e.Message
		}
		return detail
	}
	return string(body)
}
