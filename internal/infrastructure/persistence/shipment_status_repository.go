package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/persistence/models"
)

// erpTimestampLayout is the layout the ERP side reads back. Timestamps are
// recorded preformatted in the warehouse's zone.
const erpTimestampLayout = "2006:01:02 15:04:05"

// erpZone is the warehouse's zone; formatted timestamps are recorded in it.
var erpZone = mustLoadChicago()

func mustLoadChicago() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		// tzdata missing from the runtime image; fall back rather than crash.
		return time.UTC
	}
	return loc
}

// formatERPTimestamp renders t in the ERP's expected zone and layout.
func formatERPTimestamp(t time.Time) string {
	return t.In(erpZone).Format(erpTimestampLayout)
}

// Ensure GormShipmentStatusRepository implements the processor's port
var _ shippingapp.StatusRepository = (*GormShipmentStatusRepository)(nil)

// GormShipmentStatusRepository implements StatusRepository using GORM
type GormShipmentStatusRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormShipmentStatusRepository creates a new GormShipmentStatusRepository
func NewGormShipmentStatusRepository(db *gorm.DB) *GormShipmentStatusRepository {
	return &GormShipmentStatusRepository{db: db, now: time.Now}
}

// WithClock returns a repository instance using the given clock. For tests.
func (r *GormShipmentStatusRepository) WithClock(now func() time.Time) *GormShipmentStatusRepository {
	return &GormShipmentStatusRepository{db: r.db, now: now}
}

// Insert records the initial processing state. Reprocessing the same
// shipment replaces the previous record.
func (r *GormShipmentStatusRepository) Insert(ctx context.Context, state *shipping.ProcessingState) error {
	model := models.ShipmentStatusModelFromDomain(state, formatERPTimestamp(r.now()))
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "shipment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"api_status_id", "status", "error_message", "call_status", "inserted_at", "updated_at",
			}),
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("insert shipment status: %w", result.Error)
	}
	return nil
}

// UpdateStatus transitions the shipment's lifecycle state, recording the
// verbatim error message of a failure or skip.
func (r *GormShipmentStatusRepository) UpdateStatus(ctx context.Context, shipmentID string, status shipping.ProcessingStatus, errorMessage string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ShipmentStatusModel{}).
		Where("shipment_id = ?", shipmentID).
		Updates(map[string]any{
			"status":        string(status),
			"error_message": errorMessage,
			"updated_at":    formatERPTimestamp(r.now()),
		})
	if result.Error != nil {
		return fmt.Errorf("update shipment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update shipment status: no record for shipment %s", shipmentID)
	}
	return nil
}

// UpdateCallOutcome records the outcome of one downstream call under its API
// name, merging into the call status document.
func (r *GormShipmentStatusRepository) UpdateCallOutcome(ctx context.Context, shipmentID, apiName string, outcome shipping.CallOutcome, errorMessage string) error {
	updates := map[string]any{
		"call_status": gorm.Expr(
			"jsonb_set(COALESCE(call_status, '{}'::jsonb), ?, to_jsonb(?::text))",
			"{"+apiName+"}", string(outcome),
		),
		"updated_at": formatERPTimestamp(r.now()),
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}

	result := r.db.WithContext(ctx).
		Model(&models.ShipmentStatusModel{}).
		Where("shipment_id = ?", shipmentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update call outcome: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update call outcome: no record for shipment %s", shipmentID)
	}
	return nil
}

// Get returns the processing state of one shipment.
func (r *GormShipmentStatusRepository) Get(ctx context.Context, shipmentID string) (*shipping.ProcessingState, error) {
	var model models.ShipmentStatusModel
	result := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		First(&model)
	if result.Error != nil {
		return nil, fmt.Errorf("get shipment status: %w", result.Error)
	}
	return model.ToDomain(), nil
}
