// Package store persists scales, measurements, user profiles and raw
// uploads behind a single interface. The GORM implementation speaks SQLite
// (embedded, the default) and PostgreSQL through the same code path.
package store

import (
	"context"

	"github.com/openaria/ariad/pkg/models"
)

// ScaleUpsert carries the per-contact fields of a scale sighting. Optional
// fields are pointers; nil leaves the stored value untouched.
type ScaleUpsert struct {
	MAC             string
	Serial          string
	FirmwareVersion uint8
	ProtocolVersion uint8
	BatteryPercent  uint8
	SSID            *string
	AuthCode        *string
}

// MeasurementFilter narrows measurement reads for the management API.
// Zero values mean "no constraint"; Limit falls back to a server default.
type MeasurementFilter struct {
	ScaleMAC string
	UserSlot *uint8
	Limit    int
	Offset   int
}

// UserCreate carries the operator-supplied profile fields; the store
// assigns the slot.
type UserCreate struct {
	Name       string
	HeightMM   uint16
	Age        uint8
	Gender     uint8
	MinWeightG uint32
	MaxWeightG uint32
}

// Store is the persistence contract the rest of the server programs
// against. Implementations must make InsertMeasurementIfAbsent atomic with
// respect to the (scale MAC, measurement ID) unique index; everything else
// is plain reads and writes.
type Store interface {
	// UpsertScale creates the scale row on first sight and refreshes
	// firmware, battery, last-seen and the optional fields on every
	// subsequent one. Idempotent per MAC.
	UpsertScale(ctx context.Context, up ScaleUpsert) (*models.Scale, error)
	GetScale(ctx context.Context, mac string) (*models.Scale, error)
	ListScales(ctx context.Context) ([]*models.Scale, error)

	// InsertMeasurementIfAbsent inserts m unless a row with the same
	// (ScaleMAC, MeasurementID) exists. When it does, inserted is false
	// and existing is the stored row; m is untouched.
	InsertMeasurementIfAbsent(ctx context.Context, m *models.Measurement) (inserted bool, existing *models.Measurement, err error)
	RecordMeasurementConflict(ctx context.Context, c *models.MeasurementConflict) error
	ListMeasurements(ctx context.Context, f MeasurementFilter) ([]*models.Measurement, error)
	LatestMeasurement(ctx context.Context, f MeasurementFilter) (*models.Measurement, error)
	ListMeasurementConflicts(ctx context.Context) ([]*models.MeasurementConflict, error)

	// ListUsersBySlot returns all profiles ordered by slot index.
	ListUsersBySlot(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// CreateUser assigns the lowest free slot 0..7 and fails with
	// models.ErrNoFreeSlot when all are taken.
	CreateUser(ctx context.Context, uc UserCreate) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error

	RecordRawUpload(ctx context.Context, r *models.RawUpload) error
	// UpdateRawUpload amends the row written at the start of an ingest
	// with the parse outcome and response bytes. Only valid inside the
	// same transaction that wrote it.
	UpdateRawUpload(ctx context.Context, r *models.RawUpload) error
	ListRawUploads(ctx context.Context, errorsOnly bool, limit, offset int) ([]*models.RawUpload, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Transaction runs fn against a store bound to a single database
	// transaction, committing when fn returns nil and rolling back
	// otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
