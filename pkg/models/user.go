package models

import "time"

// Gender encoding as observed on the wire.
const (
	GenderFemale uint8 = 0
	GenderMale   uint8 = 1
)

// User is an operator-created profile delivered to the scale in every
// response. ScaleSlot is the 0..7 position in the response user list; the
// scale shows Name in slot order and lets a person pick their slot on the
// device. Deleting a user frees the slot.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	ScaleSlot  uint8     `gorm:"uniqueIndex;not null" json:"scale_slot"`
	HeightMM   uint16    `json:"height_mm"`
	Age        uint8     `json:"age"`
	Gender     uint8     `json:"gender"`
	MinWeightG uint32    `json:"min_weight_g"`
	MaxWeightG uint32    `json:"max_weight_g"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// HeightCM derives centimetres; millimetres are canonical.
func (u *User) HeightCM() float64 {
	return float64(u.HeightMM) / 10
}
