package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/cache"
	"github.com/shipbridge/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProcessor struct {
	outcomes map[string]*shippingapp.Outcome
	errs     map[string]error
	calls    []string
}

func (f *fakeProcessor) Process(_ context.Context, bucket, key string) (*shippingapp.Outcome, error) {
	f.calls = append(f.calls, bucket+"/"+key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if out, ok := f.outcomes[key]; ok {
		return out, nil
	}
	return &shippingapp.Outcome{ShipmentID: "S00001001", Status: shipping.StatusProcessed, TrackingNumber: "1Z999"}, nil
}

type fakeStatusReader struct {
	state *shipping.ProcessingState
	err   error
}

func (f *fakeStatusReader) Get(_ context.Context, _ string) (*shipping.ProcessingState, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.state == nil {
		return nil, errors.New("record not found")
	}
	return f.state, nil
}

func newIngestRouter(t *testing.T, proc *fakeProcessor, status *fakeStatusReader) (*gin.Engine, *cache.InMemoryIdempotencyStore) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	h := NewShipmentHandler(proc, status, store, zap.NewNop())
	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine, store
}

func storageEvent(records ...dto.StorageEventRecord) []byte {
	body, _ := json.Marshal(dto.StorageEvent{Records: records})
	return body
}

func eventRecord(bucket, key, sequencer string) dto.StorageEventRecord {
	rec := dto.StorageEventRecord{EventName: "ObjectCreated:Put", EventTime: "2024-05-01T17:30:00.000Z"}
	rec.S3.Bucket.Name = bucket
	rec.S3.Object.Key = key
	rec.S3.Object.Sequencer = sequencer
	return rec
}

func postIngest(engine *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/ingest", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestShipmentHandler_Ingest_Success(t *testing.T) {
	proc := &fakeProcessor{}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	w := postIngest(engine, storageEvent(eventRecord("inbound-docs", "shipments/S00001001.xml", "005F")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "S00001001", resp.Data[0].ShipmentID)
	assert.Equal(t, "PROCESSED", resp.Data[0].Status)
	assert.Equal(t, "1Z999", resp.Data[0].TrackingNumber)
	assert.False(t, resp.Data[0].Duplicate)
	assert.Equal(t, []string{"inbound-docs/shipments/S00001001.xml"}, proc.calls)
}

func TestShipmentHandler_Ingest_DecodesObjectKey(t *testing.T) {
	proc := &fakeProcessor{}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	w := postIngest(engine, storageEvent(eventRecord("inbound-docs", "shipments/order+1%2Bcopy.xml", "0060")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"inbound-docs/shipments/order 1+copy.xml"}, proc.calls)
}

func TestShipmentHandler_Ingest_DuplicateDelivery(t *testing.T) {
	proc := &fakeProcessor{}
	status := &fakeStatusReader{state: &shipping.ProcessingState{
		ShipmentID: "S00001001",
		Status:     shipping.StatusProcessed,
	}}
	engine, _ := newIngestRouter(t, proc, status)

	rec := eventRecord("inbound-docs", "shipments/S00001001.xml", "005F")
	w := postIngest(engine, storageEvent(rec))
	require.Equal(t, http.StatusOK, w.Code)

	w = postIngest(engine, storageEvent(rec))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Duplicate)
	// The recorded outcome is returned, not a bare duplicate marker.
	assert.Equal(t, "PROCESSED", resp.Data[0].Status)
	assert.Equal(t, "S00001001", resp.Data[0].ShipmentID)

	// Only the first delivery reached the processor.
	assert.Len(t, proc.calls, 1)
}

func TestShipmentHandler_Ingest_DuplicateWithoutStoredState(t *testing.T) {
	proc := &fakeProcessor{}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	rec := eventRecord("inbound-docs", "shipments/S00001001.xml", "005F")
	postIngest(engine, storageEvent(rec))
	w := postIngest(engine, storageEvent(rec))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Duplicate)
	// No state to read back; the duplicate marker stands in.
	assert.Equal(t, "DUPLICATE", resp.Data[0].Status)
}

func TestShipmentHandler_Ingest_RedeliveryRetriesAfterFailure(t *testing.T) {
	proc := &fakeProcessor{
		errs: map[string]error{"shipments/S00001001.xml": errors.New("fetch document: connection reset")},
	}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	rec := eventRecord("inbound-docs", "shipments/S00001001.xml", "005F")
	w := postIngest(engine, storageEvent(rec))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The blip clears; the storage redelivery must process, not be
	// suppressed as a duplicate.
	proc.errs = nil
	w = postIngest(engine, storageEvent(rec))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.False(t, resp.Data[0].Duplicate)
	assert.Equal(t, "PROCESSED", resp.Data[0].Status)
	assert.Len(t, proc.calls, 2)
}

func TestShipmentHandler_Ingest_MixedBatch(t *testing.T) {
	proc := &fakeProcessor{
		errs: map[string]error{"shipments/bad.xml": errors.New("document is not a UniversalShipment")},
		outcomes: map[string]*shippingapp.Outcome{
			"shipments/skip.xml": {ShipmentID: "S00001002", Status: shipping.StatusSkipped},
		},
	}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	w := postIngest(engine, storageEvent(
		eventRecord("inbound-docs", "shipments/good.xml", "01"),
		eventRecord("inbound-docs", "shipments/bad.xml", "02"),
		eventRecord("inbound-docs", "shipments/skip.xml", "03"),
	))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "PROCESSED", resp.Data[0].Status)
	assert.Equal(t, "FAILED", resp.Data[1].Status)
	assert.Contains(t, resp.Data[1].Error, "not a UniversalShipment")
	assert.Equal(t, "SKIPPED", resp.Data[2].Status)
}

func TestShipmentHandler_Ingest_AllFailed(t *testing.T) {
	proc := &fakeProcessor{
		errs: map[string]error{"shipments/bad.xml": errors.New("fetch document: access denied")},
	}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	w := postIngest(engine, storageEvent(eventRecord("inbound-docs", "shipments/bad.xml", "01")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestShipmentHandler_Ingest_ReportErrors(t *testing.T) {
	proc := &fakeProcessor{
		outcomes: map[string]*shippingapp.Outcome{
			"shipments/partial.xml": {
				ShipmentID:     "S00001003",
				Status:         shipping.StatusProcessed,
				TrackingNumber: "1Z42",
				ReportErrors:   []error{errors.New("AddTracking: adapter returned ERR")},
			},
		},
	}
	engine, _ := newIngestRouter(t, proc, &fakeStatusReader{})

	w := postIngest(engine, storageEvent(eventRecord("inbound-docs", "shipments/partial.xml", "01")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []dto.IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "PROCESSED", resp.Data[0].Status)
	require.Len(t, resp.Data[0].ReportErrors, 1)
	assert.Contains(t, resp.Data[0].ReportErrors[0], "AddTracking")
}

func TestShipmentHandler_Ingest_InvalidBody(t *testing.T) {
	engine, _ := newIngestRouter(t, &fakeProcessor{}, &fakeStatusReader{})

	w := postIngest(engine, []byte(`{"Records": []}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postIngest(engine, []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShipmentHandler_GetStatus(t *testing.T) {
	state := &shipping.ProcessingState{
		ShipmentID: "S00001001",
		Status:     shipping.StatusProcessed,
		CallStatus: map[string]shipping.CallOutcome{"AddTracking": shipping.CallOutcomeSuccess},
		InsertedAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
	h := NewShipmentHandler(&fakeProcessor{}, &fakeStatusReader{state: state}, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/S00001001/status", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "S00001001")
	assert.Contains(t, w.Body.String(), "PROCESSED")
}

func TestShipmentHandler_GetStatus_NotFound(t *testing.T) {
	h := NewShipmentHandler(&fakeProcessor{}, &fakeStatusReader{err: errors.New("record not found")}, cache.NewInMemoryIdempotencyStore(), zap.NewNop())
	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/UNKNOWN/status", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
