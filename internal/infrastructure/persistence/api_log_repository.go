package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/persistence/models"
)

// Ensure GormAPILogRepository implements the processor's port
var _ shippingapp.APILogRepository = (*GormAPILogRepository)(nil)

// GormAPILogRepository implements APILogRepository using GORM. The log is
// append-only; entries are never updated or deleted here.
type GormAPILogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormAPILogRepository creates a new GormAPILogRepository
func NewGormAPILogRepository(db *gorm.DB) *GormAPILogRepository {
	return &GormAPILogRepository{db: db, now: time.Now}
}

// WithClock returns a repository instance using the given clock. For tests.
func (r *GormAPILogRepository) WithClock(now func() time.Time) *GormAPILogRepository {
	return &GormAPILogRepository{db: r.db, now: now}
}

// Append stores one request/response record.
func (r *GormAPILogRepository) Append(ctx context.Context, entry *shipping.APILogEntry) error {
	model := models.APILogModelFromDomain(entry, formatERPTimestamp(r.now()))
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("append api log: %w", err)
	}
	return nil
}

// ListByShipment returns all records of one shipment in insertion order.
func (r *GormAPILogRepository) ListByShipment(ctx context.Context, shipmentID string) ([]*shipping.APILogEntry, error) {
	var rows []models.APILogModel
	result := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("id ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("list api logs: %w", result.Error)
	}

	entries := make([]*shipping.APILogEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}
