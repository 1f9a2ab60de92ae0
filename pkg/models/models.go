// Package models defines the persisted entities and their sentinel errors.
package models

// AllModels returns every model for GORM AutoMigrate.
func AllModels() []any {
	return []any{
		&Scale{},
		&Measurement{},
		&MeasurementConflict{},
		&User{},
		&RawUpload{},
	}
}
