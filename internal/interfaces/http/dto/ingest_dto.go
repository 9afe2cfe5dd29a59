package dto

// StorageEvent is the S3-style event notification delivered when a freight
// document lands in the inbound bucket.
type StorageEvent struct {
	Records []StorageEventRecord `json:"Records" binding:"required,min=1"`
}

// StorageEventRecord is one object-created record.
type StorageEventRecord struct {
	EventName string        `json:"eventName"`
	EventTime string        `json:"eventTime"`
	S3        StorageObject `json:"s3" binding:"required"`
}

// StorageObject locates the stored document.
type StorageObject struct {
	Bucket struct {
		Name string `json:"name" binding:"required"`
	} `json:"bucket" binding:"required"`
	Object struct {
		Key       string `json:"key" binding:"required"`
		Sequencer string `json:"sequencer"`
	} `json:"object" binding:"required"`
}

// EventID derives a stable identifier for idempotent delivery handling. S3
// guarantees the sequencer is unique per bucket/key write; records without
// one fall back to bucket/key/eventTime.
func (r *StorageEventRecord) EventID() string {
	if r.S3.Object.Sequencer != "" {
		return r.S3.Bucket.Name + "/" + r.S3.Object.Key + "#" + r.S3.Object.Sequencer
	}
	return r.S3.Bucket.Name + "/" + r.S3.Object.Key + "@" + r.EventTime
}

// IngestResult reports the outcome of one processed record.
type IngestResult struct {
	Bucket         string   `json:"bucket"`
	Key            string   `json:"key"`
	ShipmentID     string   `json:"shipment_id,omitempty"`
	Status         string   `json:"status"`
	TrackingNumber string   `json:"tracking_number,omitempty"`
	Duplicate      bool     `json:"duplicate,omitempty"`
	Error          string   `json:"error,omitempty"`
	ReportErrors   []string `json:"report_errors,omitempty"`
}
