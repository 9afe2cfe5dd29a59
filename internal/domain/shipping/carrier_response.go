package shipping

// CarrierResponse is the carrier API's successful label response, reduced to
// the fields the outbound ERP documents need.
type CarrierResponse struct {
	ShipmentID     string        `json:"shipment_id"`
	TrackingNumber string        `json:"tracking_number"`
	CreatedAt      string        `json:"created_at"`
	Status         string        `json:"status"`
	LabelDownload  LabelDownload `json:"label_download"`
}

// LabelDownload carries the label image as a data-URI-style href.
type LabelDownload struct {
	Href string `json:"href"`
}
