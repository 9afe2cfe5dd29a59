package handler

import (
	"context"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/cache"
	"github.com/shipbridge/backend/internal/infrastructure/logger"
	"github.com/shipbridge/backend/internal/interfaces/http/dto"
)

// idempotencyTTL bounds how long processed event ids are remembered.
// Storage redeliveries arrive within minutes; a day is ample.
const idempotencyTTL = 24 * time.Hour

// DocumentProcessor processes one stored document end to end.
type DocumentProcessor interface {
	Process(ctx context.Context, bucket, key string) (*shippingapp.Outcome, error)
}

// StatusReader reads back the processing state of one shipment.
type StatusReader interface {
	Get(ctx context.Context, shipmentID string) (*shipping.ProcessingState, error)
}

// ShipmentHandler serves document ingestion and status lookup.
type ShipmentHandler struct {
	BaseHandler
	processor   DocumentProcessor
	status      StatusReader
	idempotency cache.IdempotencyStore
	logger      *zap.Logger
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(processor DocumentProcessor, status StatusReader, idempotency cache.IdempotencyStore, logger *zap.Logger) *ShipmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentHandler{
		processor:   processor,
		status:      status,
		idempotency: idempotency,
		logger:      logger,
	}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	{
		shipments.POST("/ingest", h.Ingest)
		shipments.GET("/:id/status", h.GetStatus)
	}
}

// Ingest handles POST /api/v1/shipments/ingest. The body is the storage
// event notification; each record is processed independently and reported in
// the response, so a batch with one bad document still processes the rest.
func (h *ShipmentHandler) Ingest(c *gin.Context) {
	var event dto.StorageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidJSON, "invalid storage event: "+err.Error())
		return
	}

	ctx, _ := logger.WithRequestID(c.Request.Context(), h.logger, c.GetString("request_id"))

	results := make([]dto.IngestResult, 0, len(event.Records))
	failures := 0

	for _, record := range event.Records {
		results = append(results, h.processRecord(ctx, &record))
		if results[len(results)-1].Error != "" {
			failures++
		}
	}

	if failures == len(results) {
		c.JSON(500, dto.Response{Success: false, Data: results})
		return
	}
	h.Success(c, results)
}

// processRecord handles one event record: duplicate suppression, key
// decoding, and the processing pipeline.
func (h *ShipmentHandler) processRecord(ctx context.Context, record *dto.StorageEventRecord) dto.IngestResult {
	log := logger.FromContext(ctx)
	bucket := record.S3.Bucket.Name
	// Object keys arrive URL-encoded in storage events.
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		key = record.S3.Object.Key
	}

	result := dto.IngestResult{Bucket: bucket, Key: key}
	eventID := record.EventID()

	shipmentID, seen, err := h.idempotency.Processed(ctx, eventID)
	if err != nil {
		// An unreachable store must not drop documents; process anyway.
		log.Warn("idempotency check failed", zap.String("key", key), zap.Error(err))
	} else if seen {
		log.Info("duplicate event delivery ignored", zap.String("bucket", bucket), zap.String("key", key))
		return h.recordedOutcome(ctx, result, shipmentID)
	}

	outcome, err := h.processor.Process(ctx, bucket, key)
	if err != nil {
		// The event stays unmarked so a storage redelivery retries it.
		result.Error = err.Error()
		result.Status = string(shipping.StatusFailed)
		if outcome != nil {
			result.ShipmentID = outcome.ShipmentID
		}
		return result
	}

	// Marked only after a terminal outcome; transiently failed documents
	// must not be suppressed as duplicates on redelivery.
	if _, err := h.idempotency.MarkProcessed(ctx, eventID, outcome.ShipmentID, idempotencyTTL); err != nil {
		log.Warn("failed to record processed event", zap.String("key", key), zap.Error(err))
	}

	result.ShipmentID = outcome.ShipmentID
	result.Status = string(outcome.Status)
	result.TrackingNumber = outcome.TrackingNumber
	for _, rerr := range outcome.ReportErrors {
		result.ReportErrors = append(result.ReportErrors, rerr.Error())
	}
	return result
}

// recordedOutcome resolves a duplicate delivery to the outcome recorded on
// the first run instead of reprocessing the document.
func (h *ShipmentHandler) recordedOutcome(ctx context.Context, result dto.IngestResult, shipmentID string) dto.IngestResult {
	result.Duplicate = true
	result.Status = "DUPLICATE"
	result.ShipmentID = shipmentID
	if shipmentID == "" {
		return result
	}
	if state, err := h.status.Get(ctx, shipmentID); err == nil {
		result.Status = string(state.Status)
	}
	return result
}

// GetStatus handles GET /api/v1/shipments/:id/status.
func (h *ShipmentHandler) GetStatus(c *gin.Context) {
	shipmentID := c.Param("id")
	if shipmentID == "" {
		h.BadRequest(c, "shipment id is required")
		return
	}

	state, err := h.status.Get(c.Request.Context(), shipmentID)
	if err != nil {
		h.NotFound(c, "no processing record for shipment "+shipmentID)
		return
	}
	h.Success(c, state)
}
