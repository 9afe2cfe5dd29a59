package shipping

import "errors"

var (
	// ErrMalformedDocument indicates the inbound XML failed to parse or is
	// missing the UniversalShipment root. Fatal for the document.
	ErrMalformedDocument = errors.New("shipping: malformed document")

	// ErrServiceCodeNotFound indicates no carrier service code is mapped for
	// the resolved (transport company, service level) pair. The document is
	// skipped, not failed.
	ErrServiceCodeNotFound = errors.New("shipping: service code not found")

	// ErrEnrichmentFailed indicates a customs lookup failed for an order
	// line. Customs filing cannot be partial, so this fails the shipment.
	ErrEnrichmentFailed = errors.New("shipping: customs enrichment failed")

	// ErrCarrierAPI indicates the carrier call returned a declared error
	// status or a non-2xx result.
	ErrCarrierAPI = errors.New("shipping: carrier API error")

	// ErrDownstreamReport indicates one of the ERP report-back calls failed.
	// It is reflected in the per-call sub-status but does not unwind a
	// carrier success already recorded.
	ErrDownstreamReport = errors.New("shipping: downstream report failed")
)
