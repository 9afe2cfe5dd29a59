package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/logger"
)

// DocumentStore fetches the raw freight XML for a storage locator.
type DocumentStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// CarrierClient submits the canonical payload to the carrier API.
type CarrierClient interface {
	CreateLabel(ctx context.Context, payload *shipping.CarrierPayload) (*shipping.CarrierResponse, error)
}

// ERPClient posts an outbound XML document to the ERP adapter under a named
// operation (AddDocument, AddTracking, ErrorUpload).
type ERPClient interface {
	Send(ctx context.Context, apiName, xmlPayload string) (string, error)
}

// StatusRepository persists the per-shipment processing state.
type StatusRepository interface {
	Insert(ctx context.Context, state *shipping.ProcessingState) error
	UpdateStatus(ctx context.Context, shipmentID string, status shipping.ProcessingStatus, errorMessage string) error
	UpdateCallOutcome(ctx context.Context, shipmentID, apiName string, outcome shipping.CallOutcome, errorMessage string) error
}

// APILogRepository appends request/response records of downstream calls.
type APILogRepository interface {
	Append(ctx context.Context, entry *shipping.APILogEntry) error
}

// Notifier dispatches a fire-and-forget alert.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Outcome summarizes one processed document.
type Outcome struct {
	ShipmentID     string
	Status         shipping.ProcessingStatus
	TrackingNumber string
	// ReportErrors carries failures of the parallel ERP report-back calls.
	// They are surfaced for aggregate reporting but do not unwind the
	// recorded carrier success.
	ReportErrors []error
}

// Processor orchestrates one inbound document end to end: fetch, transform,
// carrier call, ERP report-back fan-out, and status tracking.
type Processor struct {
	store    DocumentStore
	builder  *PayloadBuilder
	enricher *CustomsEnricher
	carrier  CarrierClient
	erp      ERPClient
	status   StatusRepository
	apiLog   APILogRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(
	store DocumentStore,
	builder *PayloadBuilder,
	enricher *CustomsEnricher,
	carrier CarrierClient,
	erp ERPClient,
	status StatusRepository,
	apiLog APILogRepository,
	notifier Notifier,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:    store,
		builder:  builder,
		enricher: enricher,
		carrier:  carrier,
		erp:      erp,
		status:   status,
		apiLog:   apiLog,
		notifier: notifier,
		logger:   logger,
	}
}

// Process handles one inbound document identified by its storage locator.
// All raised conditions are recorded into the processing state and trigger a
// notification; the original condition is reported verbatim to the ERP via
// an error note whenever a shipment id is known.
func (p *Processor) Process(ctx context.Context, bucket, key string) (*Outcome, error) {
	apiStatusID := uuid.New().String()
	log := p.logger.With(zap.String("bucket", bucket), zap.String("key", key), zap.String("api_status_id", apiStatusID))
	ctx = logger.WithContext(ctx, log)

	raw, err := p.store.Fetch(ctx, bucket, key)
	if err != nil {
		p.notifyError(ctx, fmt.Sprintf("failed to fetch document %s", key), err)
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	result, err := p.builder.Build(raw)
	if err != nil {
		// No shipment id is known yet, so the failure can only be alerted.
		p.notifyError(ctx, fmt.Sprintf("failed to transform document %s", key), err)
		return nil, err
	}

	shipmentID := result.ExternalShipmentID
	// Every log line from here on carries the shipment id, including the ones
	// emitted by collaborators that pull their logger from the context.
	ctx, log = logger.WithShipmentID(ctx, log, shipmentID)

	if err := p.status.Insert(ctx, &shipping.ProcessingState{
		ShipmentID:  shipmentID,
		APIStatusID: apiStatusID,
		Status:      shipping.StatusProcessing,
	}); err != nil {
		return nil, p.fail(ctx, shipmentID, fmt.Errorf("insert status: %w", err))
	}

	if result.Skip {
		// Operator alerts name only the file, not the full object key.
		return p.skip(ctx, path.Base(key), result, log)
	}

	if result.Payload.Shipment.Customs != nil {
		products, err := p.enricher.Enrich(ctx, result.OrderLines, result.ConsignorCode)
		if err != nil {
			return nil, p.fail(ctx, shipmentID, err)
		}
		result.Payload.Shipment.Customs.Products = products
	}

	resp, err := p.callCarrier(ctx, shipmentID, apiStatusID, &result.Payload)
	if err != nil {
		return nil, p.fail(ctx, shipmentID, err)
	}
	log.Info("carrier call succeeded", zap.String("tracking_number", resp.TrackingNumber))

	reportErrs := p.reportBack(ctx, shipmentID, apiStatusID, result.ShipmentNumber, resp)
	for _, rerr := range reportErrs {
		log.Error("ERP report-back failed", zap.Error(rerr))
	}

	if err := p.status.UpdateStatus(ctx, shipmentID, shipping.StatusProcessed, ""); err != nil {
		log.Error("failed to record processed status", zap.Error(err))
	}

	return &Outcome{
		ShipmentID:     shipmentID,
		Status:         shipping.StatusProcessed,
		TrackingNumber: resp.TrackingNumber,
		ReportErrors:   reportErrs,
	}, nil
}

// skip records the SKIPPED outcome of an unmapped service level: no carrier
// call is made, the team is alerted, and the ERP receives an error note
// naming the invalid service level.
func (p *Processor) skip(ctx context.Context, fileName string, result *shipping.BuildResult, log *zap.Logger) (*Outcome, error) {
	shipmentID := result.ExternalShipmentID

	if err := p.status.UpdateStatus(ctx, shipmentID, shipping.StatusSkipped, "Valid service level not present."); err != nil {
		log.Error("failed to record skipped status", zap.Error(err))
	}

	subject := "Skipped processing a freight document"
	message := fmt.Sprintf(
		"Hello Team,\nThe %s got skipped.\nThis is due to an invalid service level received: %s.\nNote: The same message has already been conveyed to Customers.\n",
		fileName, result.ServiceLevel,
	)
	if err := p.notifier.Notify(ctx, subject, message); err != nil {
		log.Error("skip notification failed", zap.Error(err))
	}

	detail := fmt.Sprintf("Invalid service level received: %s", result.ServiceLevel)
	if err := p.sendErrorNote(ctx, shipmentID, detail); err != nil {
		log.Error("skip error note failed", zap.Error(err))
	}

	log.Info("document skipped", zap.String("service_level", result.ServiceLevel))
	return &Outcome{ShipmentID: shipmentID, Status: shipping.StatusSkipped}, nil
}

// callCarrier posts the payload to the carrier, logging the exchange and the
// per-call outcome. The logged response omits the label image.
func (p *Processor) callCarrier(ctx context.Context, shipmentID, apiStatusID string, payload *shipping.CarrierPayload) (*shipping.CarrierResponse, error) {
	request, _ := json.Marshal(payload)

	resp, err := p.carrier.CreateLabel(ctx, payload)
	if err != nil {
		p.recordCall(ctx, shipmentID, apiStatusID, shipping.APINameCarrier, string(request), "", err)
		return nil, err
	}

	logged := *resp
	logged.LabelDownload.Href = "" // label image is logged nowhere
	response, _ := json.Marshal(&logged)
	p.recordCall(ctx, shipmentID, apiStatusID, shipping.APINameCarrier, string(request), string(response), nil)

	return resp, nil
}

// reportBack runs the two ERP report-back calls in parallel. A failure in
// one must not prevent the other from completing, so the group carries no
// cancellation; both failures are surfaced to the caller.
func (p *Processor) reportBack(ctx context.Context, shipmentID, apiStatusID, shipmentNumber string, resp *shipping.CarrierResponse) []error {
	labelDoc, labelErr := LabelEventDocument(resp, shipmentID)
	trackingDoc, trackingErr := TrackingDocument(resp, shipmentID, shipmentNumber)

	var g errgroup.Group
	errs := make([]error, 2)

	g.Go(func() error {
		if labelErr != nil {
			errs[0] = fmt.Errorf("%w: %s: %v", shipping.ErrDownstreamReport, shipping.APINameAddDocument, labelErr)
			return nil
		}
		errs[0] = p.sendReport(ctx, shipmentID, apiStatusID, shipping.APINameAddDocument, labelDoc)
		return nil
	})
	g.Go(func() error {
		if trackingErr != nil {
			errs[1] = fmt.Errorf("%w: %s: %v", shipping.ErrDownstreamReport, shipping.APINameAddTracking, trackingErr)
			return nil
		}
		errs[1] = p.sendReport(ctx, shipmentID, apiStatusID, shipping.APINameAddTracking, trackingDoc)
		return nil
	})
	_ = g.Wait()

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// sendReport posts one outbound document to the ERP, logging the exchange
// and recording the per-call sub-status.
func (p *Processor) sendReport(ctx context.Context, shipmentID, apiStatusID, apiName, xmlPayload string) error {
	body, err := p.erp.Send(ctx, apiName, xmlPayload)
	p.recordCall(ctx, shipmentID, apiStatusID, apiName, xmlPayload, body, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shipping.ErrDownstreamReport, apiName, err)
	}
	return nil
}

// recordCall appends the request/response log entry and updates the per-call
// sub-status. Bookkeeping failures are logged, never raised.
func (p *Processor) recordCall(ctx context.Context, shipmentID, apiStatusID, apiName, request, response string, callErr error) {
	outcome := shipping.CallOutcomeSuccess
	message := ""
	if callErr != nil {
		outcome = shipping.CallOutcomeFailed
		message = callErr.Error()
	}

	log := logger.FromContext(ctx)
	if err := p.apiLog.Append(ctx, &shipping.APILogEntry{
		ShipmentID:  shipmentID,
		APIStatusID: apiStatusID,
		APIName:     apiName,
		Request:     request,
		Response:    response,
	}); err != nil {
		log.Error("failed to store api log", zap.String("api", apiName), zap.Error(err))
	}
	if err := p.status.UpdateCallOutcome(ctx, shipmentID, apiName, outcome, message); err != nil {
		log.Error("failed to update call outcome", zap.String("api", apiName), zap.Error(err))
	}
}

// sendErrorNote builds and uploads the error-note document for the shipment.
func (p *Processor) sendErrorNote(ctx context.Context, shipmentID string, detail any) error {
	if shipmentID == "" {
		return nil
	}
	doc, err := ErrorNoteDocument(shipmentID, detail)
	if err != nil {
		return err
	}
	_, err = p.erp.Send(ctx, shipping.APINameErrorUpload, doc)
	return err
}

// fail records a fatal condition: FAILED status with the verbatim message,
// a notification, and an error note to the ERP when the shipment is known.
func (p *Processor) fail(ctx context.Context, shipmentID string, cause error) error {
	log := logger.FromContext(ctx)
	if shipmentID != "" {
		if err := p.status.UpdateStatus(ctx, shipmentID, shipping.StatusFailed, cause.Error()); err != nil {
			log.Error("failed to record failure status", zap.Error(err))
		}
		if err := p.sendErrorNote(ctx, shipmentID, cause.Error()); err != nil {
			log.Error("failure error note failed", zap.Error(err))
		}
	}
	p.notifyError(ctx, fmt.Sprintf("Error occurred processing shipment %s", shipmentID), cause)
	return cause
}

func (p *Processor) notifyError(ctx context.Context, subject string, cause error) {
	if err := p.notifier.Notify(ctx, subject, cause.Error()); err != nil {
		logger.FromContext(ctx).Error("error notification failed", zap.Error(err))
	}
}
