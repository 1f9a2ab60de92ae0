package store

import (
	"context"

	"github.com/openaria/ariad/pkg/models"
)

// DefaultRawUploadLimit bounds unpaginated raw-upload reads; the request
// bytes make these rows heavy.
const DefaultRawUploadLimit = 50

// RecordRawUpload writes the verbatim request row.
func (s *GORMStore) RecordRawUpload(ctx context.Context, r *models.RawUpload) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// UpdateRawUpload amends the parse outcome and response bytes of the row
// written at the start of an ingest.
func (s *GORMStore) UpdateRawUpload(ctx context.Context, r *models.RawUpload) error {
	return s.db.WithContext(ctx).
		Model(r).
		Select("ParseOK", "Error", "ResponseBytes", "ScaleMAC").
		Updates(r).Error
}

// ListRawUploads returns raw upload rows newest first, optionally only the
// ones that carry an error.
func (s *GORMStore) ListRawUploads(ctx context.Context, errorsOnly bool, limit, offset int) ([]*models.RawUpload, error) {
	q := s.db.WithContext(ctx).Model(&models.RawUpload{})
	if errorsOnly {
		q = q.Where("error <> ''")
	}
	if limit <= 0 {
		limit = DefaultRawUploadLimit
	}

	var out []*models.RawUpload
	if err := q.Order("received_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
