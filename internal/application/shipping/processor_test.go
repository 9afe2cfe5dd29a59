package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shipbridge/backend/internal/domain/shipping"
)

type MockDocumentStore struct{ mock.Mock }

func (m *MockDocumentStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockCarrierClient struct{ mock.Mock }

func (m *MockCarrierClient) CreateLabel(ctx context.Context, payload *shipping.CarrierPayload) (*shipping.CarrierResponse, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CarrierResponse), args.Error(1)
}

type MockERPClient struct{ mock.Mock }

func (m *MockERPClient) Send(ctx context.Context, apiName, xmlPayload string) (string, error) {
	args := m.Called(ctx, apiName, xmlPayload)
	return args.String(0), args.Error(1)
}

type MockStatusRepository struct{ mock.Mock }

func (m *MockStatusRepository) Insert(ctx context.Context, state *shipping.ProcessingState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *MockStatusRepository) UpdateStatus(ctx context.Context, shipmentID string, status shipping.ProcessingStatus, errorMessage string) error {
	return m.Called(ctx, shipmentID, status, errorMessage).Error(0)
}

func (m *MockStatusRepository) UpdateCallOutcome(ctx context.Context, shipmentID, apiName string, outcome shipping.CallOutcome, errorMessage string) error {
	return m.Called(ctx, shipmentID, apiName, outcome, errorMessage).Error(0)
}

type MockAPILogRepository struct{ mock.Mock }

func (m *MockAPILogRepository) Append(ctx context.Context, entry *shipping.APILogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

type processorFixture struct {
	store    *MockDocumentStore
	carrier  *MockCarrierClient
	erp      *MockERPClient
	status   *MockStatusRepository
	apiLog   *MockAPILogRepository
	notifier *MockNotifier
	proc     *Processor
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		store:    new(MockDocumentStore),
		carrier:  new(MockCarrierClient),
		erp:      new(MockERPClient),
		status:   new(MockStatusRepository),
		apiLog:   new(MockAPILogRepository),
		notifier: new(MockNotifier),
	}
	f.proc = NewProcessor(
		f.store,
		NewPayloadBuilder(testShipFrom, true),
		NewCustomsEnricher(&fakeLookup{attrs: map[string]ProductAttributes{
			"SKU-1": {HarmonizedTariffCode: "8471.30", CountryOfOrigin: "CN"},
		}}),
		f.carrier,
		f.erp,
		f.status,
		f.apiLog,
		f.notifier,
		zap.NewNop(),
	)
	return f
}

func TestProcess_HappyPath(t *testing.T) {
	f := newProcessorFixture()
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "U1D", isResidential: "false"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "inbound/s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.MatchedBy(func(s *shipping.ProcessingState) bool {
		return s.ShipmentID == "S00012345" && s.Status == shipping.StatusProcessing
	})).Return(nil)
	f.carrier.On("CreateLabel", mock.Anything, mock.Anything).Return(carrierResponse(), nil)
	f.apiLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateCallOutcome", mock.Anything, "S00012345", mock.Anything, shipping.CallOutcomeSuccess, "").Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameAddDocument, mock.Anything).Return("ok", nil)
	f.erp.On("Send", mock.Anything, shipping.APINameAddTracking, mock.Anything).Return("ok", nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusProcessed, "").Return(nil)

	out, err := f.proc.Process(context.Background(), "freight-docs", "inbound/s1.xml")
	require.NoError(t, err)

	assert.Equal(t, shipping.StatusProcessed, out.Status)
	assert.Equal(t, "1Z999AA10123456784", out.TrackingNumber)
	assert.Empty(t, out.ReportErrors)

	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	f.erp.AssertNumberOfCalls(t, "Send", 2)
}

func TestProcess_SkipOnUnmappedServiceLevel(t *testing.T) {
	f := newProcessorFixture()
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "ZZZ"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "inbound/s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusSkipped, "Valid service level not present.").Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameErrorUpload, mock.Anything).Return("ok", nil)

	out, err := f.proc.Process(context.Background(), "freight-docs", "inbound/s1.xml")
	require.NoError(t, err)

	assert.Equal(t, shipping.StatusSkipped, out.Status)
	f.carrier.AssertNotCalled(t, "CreateLabel", mock.Anything, mock.Anything)

	// The error note names the invalid service level.
	call := f.erp.Calls[0]
	assert.Contains(t, call.Arguments.String(2), "Invalid service level received: ZZZ")
	assert.Contains(t, call.Arguments.String(2), "S00012345")
}

func TestProcess_MalformedDocumentFails(t *testing.T) {
	f := newProcessorFixture()

	f.store.On("Fetch", mock.Anything, "freight-docs", "bad.xml").Return([]byte("<NotAShipment/>"), nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.proc.Process(context.Background(), "freight-docs", "bad.xml")
	require.Error(t, err)
	assert.ErrorIs(t, err, shipping.ErrMalformedDocument)

	f.status.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.carrier.AssertNotCalled(t, "CreateLabel", mock.Anything, mock.Anything)
}

func TestProcess_CarrierFailureRecordsFailedStatus(t *testing.T) {
	f := newProcessorFixture()
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "U1D"})
	carrierErr := errors.New("carrier rejected shipment")

	f.store.On("Fetch", mock.Anything, "freight-docs", "s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.carrier.On("CreateLabel", mock.Anything, mock.Anything).Return(nil, carrierErr)
	f.apiLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateCallOutcome", mock.Anything, "S00012345", shipping.APINameCarrier, shipping.CallOutcomeFailed, carrierErr.Error()).Return(nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusFailed, carrierErr.Error()).Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameErrorUpload, mock.Anything).Return("ok", nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, carrierErr.Error()).Return(nil)

	_, err := f.proc.Process(context.Background(), "freight-docs", "s1.xml")
	require.Error(t, err)
	assert.Equal(t, carrierErr, err)

	f.status.AssertCalled(t, "UpdateStatus", mock.Anything, "S00012345", shipping.StatusFailed, carrierErr.Error())
	f.erp.AssertNumberOfCalls(t, "Send", 1)
}

func TestProcess_OneReportFailureDoesNotUnwindSuccess(t *testing.T) {
	f := newProcessorFixture()
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "U1D"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.carrier.On("CreateLabel", mock.Anything, mock.Anything).Return(carrierResponse(), nil)
	f.apiLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateCallOutcome", mock.Anything, "S00012345", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameAddDocument, mock.Anything).Return("", errors.New("eadapter 503"))
	f.erp.On("Send", mock.Anything, shipping.APINameAddTracking, mock.Anything).Return("ok", nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusProcessed, "").Return(nil)

	out, err := f.proc.Process(context.Background(), "freight-docs", "s1.xml")
	require.NoError(t, err)

	assert.Equal(t, shipping.StatusProcessed, out.Status)
	require.Len(t, out.ReportErrors, 1)
	assert.ErrorIs(t, out.ReportErrors[0], shipping.ErrDownstreamReport)
	// The tracking call still ran.
	f.erp.AssertCalled(t, "Send", mock.Anything, shipping.APINameAddTracking, mock.Anything)
}

func TestProcess_LogsCarryShipmentID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	f := newProcessorFixture()
	f.proc.logger = zap.New(core)
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "U1D"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.carrier.On("CreateLabel", mock.Anything, mock.Anything).Return(carrierResponse(), nil)
	f.apiLog.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateCallOutcome", mock.Anything, "S00012345", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.erp.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusProcessed, "").Return(nil)

	_, err := f.proc.Process(context.Background(), "freight-docs", "s1.xml")
	require.NoError(t, err)

	logs := recorded.FilterMessage("carrier call succeeded").All()
	require.Len(t, logs, 1)
	fieldMap := make(map[string]string)
	for _, field := range logs[0].Context {
		fieldMap[field.Key] = field.String
	}
	assert.Equal(t, "S00012345", fieldMap["shipment_id"])
}

func TestProcess_SkipNotificationNamesFileBasename(t *testing.T) {
	f := newProcessorFixture()
	raw := shipmentXML(fixtureOpts{transportCompany: "UPSAIR", serviceLevel: "ZZZ"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "inbound/2024/s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusSkipped, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameErrorUpload, mock.Anything).Return("ok", nil)

	_, err := f.proc.Process(context.Background(), "freight-docs", "inbound/2024/s1.xml")
	require.NoError(t, err)

	require.Len(t, f.notifier.Calls, 1)
	message := f.notifier.Calls[0].Arguments.String(2)
	assert.Contains(t, message, "The s1.xml got skipped")
	assert.NotContains(t, message, "inbound/2024")
}

func TestProcess_EnrichmentFailureIsFatal(t *testing.T) {
	f := newProcessorFixture()
	f.proc.enricher = NewCustomsEnricher(&fakeLookup{fail: map[string]error{"SKU-1": errors.New("no attributes")}})
	raw := shipmentXML(fixtureOpts{transportCompany: "DHLWORIAH", serviceLevel: "STD"})

	f.store.On("Fetch", mock.Anything, "freight-docs", "s1.xml").Return([]byte(raw), nil)
	f.status.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.status.On("UpdateStatus", mock.Anything, "S00012345", shipping.StatusFailed, mock.Anything).Return(nil)
	f.erp.On("Send", mock.Anything, shipping.APINameErrorUpload, mock.Anything).Return("ok", nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.proc.Process(context.Background(), "freight-docs", "s1.xml")
	require.Error(t, err)
	assert.ErrorIs(t, err, shipping.ErrEnrichmentFailed)

	f.carrier.AssertNotCalled(t, "CreateLabel", mock.Anything, mock.Anything)
}
