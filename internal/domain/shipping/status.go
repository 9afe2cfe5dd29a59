package shipping

import "time"

// ProcessingStatus is the lifecycle state of one inbound document.
type ProcessingStatus string

const (
	// StatusProcessing is set when the document is accepted.
	StatusProcessing ProcessingStatus = "PROCESSING"
	// StatusProcessed is set after all downstream calls completed.
	StatusProcessed ProcessingStatus = "PROCESSED"
	// StatusFailed is set when a fatal condition stopped processing.
	StatusFailed ProcessingStatus = "FAILED"
	// StatusSkipped is set when no carrier service code could be resolved;
	// the carrier is never called.
	StatusSkipped ProcessingStatus = "SKIPPED"
)

// CallOutcome is the recorded sub-status of one downstream API call.
type CallOutcome string

const (
	CallOutcomeSuccess CallOutcome = "Success"
	CallOutcomeFailed  CallOutcome = "FAILED"
)

// Downstream API names as recorded in the per-call sub-status and the
// request/response log.
const (
	APINameCarrier     = "ShipEngine"
	APINameAddDocument = "AddDocument"
	APINameAddTracking = "AddTracking"
	APINameErrorUpload = "ErrorUpload"
)

// ProcessingState is the status record kept per shipment, keyed by the
// external shipment id. It is created at ingestion and mutated by each
// downstream call's outcome; retention is an external concern.
type ProcessingState struct {
	ShipmentID   string
	APIStatusID  string
	Status       ProcessingStatus
	ErrorMessage string
	// CallStatus records the outcome of each downstream call by API name.
	CallStatus map[string]CallOutcome
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// APILogEntry is one append-only request/response record of a downstream
// call.
type APILogEntry struct {
	ShipmentID  string
	APIStatusID string
	APIName     string
	Request     string
	Response    string
	InsertedAt  time.Time
}
