package models

import (
	"encoding/json"
	"time"

	"github.com/shipbridge/backend/internal/domain/shipping"
)

// ShipmentStatusModel maps the per-shipment processing state. The primary
// key is the external shipment id: reprocessing the same shipment overwrites
// its record rather than appending a second one.
type ShipmentStatusModel struct {
	ShipmentID     string `gorm:"column:shipment_id;primaryKey"`
	APIStatusID    string `gorm:"column:api_status_id;not null"`
	Status         string `gorm:"column:status;not null"`
	ErrorMessage   string `gorm:"column:error_message"`
	CallStatusJSON string `gorm:"column:call_status;type:jsonb;default:'{}'"`
	// InsertedAt and UpdatedAt are preformatted in the ERP's expected zone
	// and layout rather than stored as timestamps.
	InsertedAt string `gorm:"column:inserted_at;not null"`
	UpdatedAt  string `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for ShipmentStatusModel
func (ShipmentStatusModel) TableName() string {
	return "shipment_statuses"
}

// ShipmentStatusModelFromDomain converts a domain ProcessingState to its model
func ShipmentStatusModelFromDomain(s *shipping.ProcessingState, formattedNow string) *ShipmentStatusModel {
	callStatus := "{}"
	if len(s.CallStatus) > 0 {
		if raw, err := json.Marshal(s.CallStatus); err == nil {
			callStatus = string(raw)
		}
	}
	return &ShipmentStatusModel{
		ShipmentID:     s.ShipmentID,
		APIStatusID:    s.APIStatusID,
		Status:         string(s.Status),
		ErrorMessage:   s.ErrorMessage,
		CallStatusJSON: callStatus,
		InsertedAt:     formattedNow,
		UpdatedAt:      formattedNow,
	}
}

// ToDomain converts the model back to a domain ProcessingState. Formatted
// timestamps that no longer parse come back as zero times.
func (m *ShipmentStatusModel) ToDomain() *shipping.ProcessingState {
	state := &shipping.ProcessingState{
		ShipmentID:   m.ShipmentID,
		APIStatusID:  m.APIStatusID,
		Status:       shipping.ProcessingStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
	}
	if m.CallStatusJSON != "" && m.CallStatusJSON != "{}" {
		_ = json.Unmarshal([]byte(m.CallStatusJSON), &state.CallStatus)
	}
	state.InsertedAt = parseERPTimestamp(m.InsertedAt)
	state.UpdatedAt = parseERPTimestamp(m.UpdatedAt)
	return state
}

// APILogModel maps one append-only request/response record.
type APILogModel struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ShipmentID  string `gorm:"column:shipment_id;not null;index"`
	APIStatusID string `gorm:"column:api_status_id;not null"`
	APIName     string `gorm:"column:api_name;not null"`
	Request     string `gorm:"column:request"`
	Response    string `gorm:"column:response"`
	InsertedAt  string `gorm:"column:inserted_at;not null"`
}

// TableName returns the table name for APILogModel
func (APILogModel) TableName() string {
	return "api_logs"
}

// APILogModelFromDomain converts a domain APILogEntry to its model
func APILogModelFromDomain(e *shipping.APILogEntry, formattedNow string) *APILogModel {
	return &APILogModel{
		ShipmentID:  e.ShipmentID,
		APIStatusID: e.APIStatusID,
		APIName:     e.APIName,
		Request:     e.Request,
		Response:    e.Response,
		InsertedAt:  formattedNow,
	}
}

// ToDomain converts the model back to a domain APILogEntry
func (m *APILogModel) ToDomain() *shipping.APILogEntry {
	return &shipping.APILogEntry{
		ShipmentID:  m.ShipmentID,
		APIStatusID: m.APIStatusID,
		APIName:     m.APIName,
		Request:     m.Request,
		Response:    m.Response,
		InsertedAt:  parseERPTimestamp(m.InsertedAt),
	}
}

// erpTimestampLayout is the layout the ERP side reads back.
const erpTimestampLayout = "2006:01:02 15:04:05"

func parseERPTimestamp(s string) time.Time {
	t, err := time.Parse(erpTimestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
