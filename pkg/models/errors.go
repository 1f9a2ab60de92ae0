package models

import "errors"

// Common errors for store operations.
var (
	// Scale errors
	ErrScaleNotFound = errors.New("scale not found")

	// Measurement errors
	ErrMeasurementNotFound  = errors.New("measurement not found")
	ErrDuplicateMeasurement = errors.New("measurement already exists")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrNoFreeSlot   = errors.New("all scale slots are taken")
	ErrSlotTaken    = errors.New("scale slot already assigned")
)
