package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openaria/ariad/pkg/models"
)

// UpsertScale creates the scale on first sight and refreshes the mutable
// fields on every later one. Concurrent upserts for the same MAC race on
// the unique index; the loser retries as an update.
func (s *GORMStore) UpsertScale(ctx context.Context, up ScaleUpsert) (*models.Scale, error) {
	now := time.Now().UTC()

	var scale models.Scale
	err := s.db.WithContext(ctx).Where("mac_address = ?", up.MAC).First(&scale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		scale = models.Scale{
			MACAddress:      up.MAC,
			Serial:          up.Serial,
			FirmwareVersion: up.FirmwareVersion,
			ProtocolVersion: up.ProtocolVersion,
			BatteryPercent:  up.BatteryPercent,
			FirstSeen:       now,
			LastSeen:        now,
		}
		if up.SSID != nil {
			scale.LastSSID = up.SSID
		}
		if up.AuthCode != nil {
			scale.AuthCode = *up.AuthCode
		}
		if err := s.db.WithContext(ctx).Create(&scale).Error; err != nil {
			if !isUniqueConstraintError(err) {
				return nil, err
			}
			// Lost the race to another upload from the same MAC;
			// fall through to the update path.
			if err := s.db.WithContext(ctx).Where("mac_address = ?", up.MAC).First(&scale).Error; err != nil {
				return nil, err
			}
		} else {
			return &scale, nil
		}
	} else if err != nil {
		return nil, err
	}

	scale.FirmwareVersion = up.FirmwareVersion
	scale.ProtocolVersion = up.ProtocolVersion
	scale.BatteryPercent = up.BatteryPercent
	scale.LastSeen = now
	if up.SSID != nil {
		scale.LastSSID = up.SSID
	}
	if up.AuthCode != nil {
		scale.AuthCode = *up.AuthCode
	}

	if err := s.db.WithContext(ctx).
		Model(&scale).
		Select("FirmwareVersion", "ProtocolVersion", "BatteryPercent", "LastSeen", "LastSSID", "AuthCode").
		Updates(&scale).Error; err != nil {
		return nil, err
	}
	return &scale, nil
}

// GetScale returns the scale row for the canonical MAC, or
// models.ErrScaleNotFound.
func (s *GORMStore) GetScale(ctx context.Context, mac string) (*models.Scale, error) {
	var scale models.Scale
	if err := s.db.WithContext(ctx).Where("mac_address = ?", mac).First(&scale).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrScaleNotFound)
	}
	return &scale, nil
}

// ListScales returns all known scales, most recently seen first.
func (s *GORMStore) ListScales(ctx context.Context) ([]*models.Scale, error) {
	var scales []*models.Scale
	if err := s.db.WithContext(ctx).Order("last_seen DESC").Find(&scales).Error; err != nil {
		return nil, err
	}
	return scales, nil
}
