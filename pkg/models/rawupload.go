package models

import "time"

// RawUpload is the verbatim request a scale sent, written once per inbound
// upload regardless of parse outcome. The ingest transaction that writes it
// fills in the outcome and response bytes; after that commit the row is
// not changed. It is
// the only place decode and validation problems surface: the scale itself
// always gets a well-formed acknowledgment.
type RawUpload struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReceivedAt time.Time `json:"received_at"`

	// ScaleMAC is extracted best-effort from the fixed MAC offset before
	// full decode, so even an unparseable frame is attributable.
	ScaleMAC string `gorm:"index;size:17" json:"scale_mac,omitempty"`

	RequestBytes  []byte `json:"-"`
	ResponseBytes []byte `json:"-"`

	ParseOK bool `json:"parse_ok"`

	// Error carries decode errors or comma-joined validation flags.
	Error string `json:"error,omitempty"`
}

// TableName returns the table name for RawUpload.
func (RawUpload) TableName() string {
	return "raw_uploads"
}
