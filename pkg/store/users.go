package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/pkg/models"
)

// ListUsersBySlot returns all profiles ordered by slot index.
func (s *GORMStore) ListUsersBySlot(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := s.db.WithContext(ctx).Order("scale_slot ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns the profile by id, or models.ErrUserNotFound.
func (s *GORMStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrUserNotFound)
	}
	return &user, nil
}

// CreateUser assigns the lowest free slot 0..7 inside a transaction so two
// concurrent creates cannot land on the same slot; the unique index backs
// that up and a loser surfaces models.ErrSlotTaken.
func (s *GORMStore) CreateUser(ctx context.Context, uc UserCreate) (*models.User, error) {
	var created *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken []int
		if err := tx.Model(&models.User{}).Order("scale_slot ASC").Pluck("scale_slot", &taken).Error; err != nil {
			return err
		}

		used := make(map[int]bool, len(taken))
		for _, s := range taken {
			used[s] = true
		}

		slot := -1
		for i := 0; i < aria.UserSlots; i++ {
			if !used[i] {
				slot = i
				break
			}
		}
		if slot < 0 {
			return models.ErrNoFreeSlot
		}

		u := models.User{
			Name:       uc.Name,
			ScaleSlot:  uint8(slot),
			HeightMM:   uc.HeightMM,
			Age:        uc.Age,
			Gender:     uc.Gender,
			MinWeightG: uc.MinWeightG,
			MaxWeightG: uc.MaxWeightG,
		}
		if err := tx.Create(&u).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.ErrSlotTaken
			}
			return err
		}
		created = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteUser removes the profile and frees its slot.
func (s *GORMStore) DeleteUser(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}
