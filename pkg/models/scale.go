package models

import "time"

// Scale is a known device, created the first time it contacts the server
// and updated on every upload. Scales are never deleted: the MAC is the
// identity the measurement history hangs off.
type Scale struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MACAddress      string    `gorm:"uniqueIndex;not null;size:17" json:"mac_address"`
	Serial          string    `gorm:"size:12" json:"serial"`
	FirmwareVersion uint8     `json:"firmware_version"`
	ProtocolVersion uint8     `json:"protocol_version"`
	BatteryPercent  uint8     `json:"battery_percent"`
	LastSSID        *string   `gorm:"size:64" json:"last_ssid,omitempty"`
	AuthCode        string    `gorm:"size:32" json:"auth_code,omitempty"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}

// TableName returns the table name for Scale.
func (Scale) TableName() string {
	return "scales"
}
