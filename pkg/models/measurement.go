package models

import "time"

// PoundsPerKilogram converts read-time; grams stay the stored truth.
const PoundsPerKilogram = 2.20462

// Measurement is one weight reading as received from a scale. The pair
// (ScaleMAC, MeasurementID) is unique: the scale assigns the ID and may
// re-upload the same reading after a failed acknowledgment, so the unique
// index is what makes ingestion idempotent. Rows are immutable after insert.
type Measurement struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ScaleMAC      string `gorm:"uniqueIndex:idx_scale_measurement;not null;size:17" json:"scale_mac"`
	MeasurementID uint32 `gorm:"uniqueIndex:idx_scale_measurement;not null" json:"measurement_id"`

	WeightG        uint32   `json:"weight_g"`
	Impedance      uint16   `json:"impedance"`
	FatRaw1        uint16   `json:"fat_raw_1"`
	FatRaw2        uint16   `json:"fat_raw_2"`
	Covariance     uint16   `json:"covariance"`
	BodyFatPercent *float64 `json:"body_fat_percent,omitempty"`

	// Timestamp is the scale clock, Unix seconds. Suspect values are
	// stored as received and flagged on the raw upload.
	Timestamp uint32 `gorm:"index" json:"timestamp"`

	UserSlot uint8 `json:"user_slot"`
	IsGuest  bool  `json:"is_guest"`

	// Raw is the verbatim 32-byte wire record, kept so a re-upload with
	// the same ID but different payload can be detected as a conflict.
	Raw []byte `json:"-"`

	ReceivedAt time.Time `json:"received_at"`
}

// TableName returns the table name for Measurement.
func (Measurement) TableName() string {
	return "measurements"
}

// WeightKG derives kilograms from the canonical grams value.
func (m *Measurement) WeightKG() float64 {
	return float64(m.WeightG) / 1000
}

// WeightLbs derives pounds from the canonical grams value.
func (m *Measurement) WeightLbs() float64 {
	return m.WeightKG() * PoundsPerKilogram
}

// MeasurementConflict records a re-upload that reused an existing
// (ScaleMAC, MeasurementID) with different bytes. The original row wins;
// the rejected payload is kept here for debugging.
type MeasurementConflict struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ScaleMAC      string    `gorm:"index;not null;size:17" json:"scale_mac"`
	MeasurementID uint32    `gorm:"not null" json:"measurement_id"`
	Raw           []byte    `json:"-"`
	ReceivedAt    time.Time `json:"received_at"`
}

// TableName returns the table name for MeasurementConflict.
func (MeasurementConflict) TableName() string {
	return "measurement_conflicts"
}
