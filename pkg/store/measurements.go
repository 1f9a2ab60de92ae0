package store

import (
	"context"

	"github.com/openaria/ariad/pkg/models"
)

// DefaultMeasurementLimit bounds unpaginated measurement reads.
const DefaultMeasurementLimit = 100

// InsertMeasurementIfAbsent inserts m unless the (ScaleMAC, MeasurementID)
// pair already exists. The unique index is the dedup authority: the insert
// is attempted first and a constraint violation resolves to a lookup of the
// existing row, so two concurrent uploads of the same reading cannot both
// insert.
func (s *GORMStore) InsertMeasurementIfAbsent(ctx context.Context, m *models.Measurement) (bool, *models.Measurement, error) {
	err := s.db.WithContext(ctx).Create(m).Error
	if err == nil {
		return true, nil, nil
	}
	if !isUniqueConstraintError(err) {
		return false, nil, err
	}

	var existing models.Measurement
	if err := s.db.WithContext(ctx).
		Where("scale_mac = ? AND measurement_id = ?", m.ScaleMAC, m.MeasurementID).
		First(&existing).Error; err != nil {
		return false, nil, convertNotFoundError(err, models.ErrMeasurementNotFound)
	}
	return false, &existing, nil
}

// RecordMeasurementConflict stores the rejected payload of a differing
// re-upload.
func (s *GORMStore) RecordMeasurementConflict(ctx context.Context, c *models.MeasurementConflict) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// ListMeasurements returns measurements newest first by scale timestamp.
func (s *GORMStore) ListMeasurements(ctx context.Context, f MeasurementFilter) ([]*models.Measurement, error) {
	q := s.db.WithContext(ctx).Model(&models.Measurement{})
	if f.ScaleMAC != "" {
		q = q.Where("scale_mac = ?", f.ScaleMAC)
	}
	if f.UserSlot != nil {
		q = q.Where("user_slot = ?", *f.UserSlot)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultMeasurementLimit
	}

	var out []*models.Measurement
	if err := q.Order("timestamp DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LatestMeasurement returns the single most recent measurement matching the
// filter, or models.ErrMeasurementNotFound.
func (s *GORMStore) LatestMeasurement(ctx context.Context, f MeasurementFilter) (*models.Measurement, error) {
	q := s.db.WithContext(ctx).Model(&models.Measurement{})
	if f.ScaleMAC != "" {
		q = q.Where("scale_mac = ?", f.ScaleMAC)
	}
	if f.UserSlot != nil {
		q = q.Where("user_slot = ?", *f.UserSlot)
	}

	var m models.Measurement
	if err := q.Order("timestamp DESC").First(&m).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrMeasurementNotFound)
	}
	return &m, nil
}

// ListMeasurementConflicts returns all recorded conflicts, newest first.
func (s *GORMStore) ListMeasurementConflicts(ctx context.Context) ([]*models.MeasurementConflict, error) {
	var out []*models.MeasurementConflict
	if err := s.db.WithContext(ctx).Order("received_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
