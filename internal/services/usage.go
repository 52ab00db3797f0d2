package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/models"
	"gorm.io/gorm"
)

// UsageService maintains the per-outfit "times worn" tally. The count only
// ever grows; there is no decrement.
type UsageService struct {
	DB           *gorm.DB
	RankingsSize int
}

func NewUsageService(db *gorm.DB, rankingsSize int) *UsageService {
	return &UsageService{DB: db, RankingsSize: rankingsSize}
}

type UsageRankings struct {
	MostUsed  []models.Outfit `json:"mostUsed"`
	LeastUsed []models.Outfit `json:"leastUsed"`
}

// MarkUsed increments the outfit's usage count by exactly one. The increment
// is a single SQL read-modify-write on the row, so concurrent calls against
// the same outfit all land.
func (s *UsageService) MarkUsed(ctx context.Context, outfitID, callerID uuid.UUID) (int64, error) {
	result := s.DB.WithContext(ctx).
		Model(&models.Outfit{}).
		Where("id = ? AND owner_id = ?", outfitID, callerID).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + ?", 1),
			"last_used_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Outfit{}).Where("id = ?", outfitID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, NotFound("outfit not found")
		}
		return 0, Forbidden("only the owner can mark an outfit as used")
	}

	var outfit models.Outfit
	if err := s.DB.WithContext(ctx).Select("usage_count").First(&outfit, "id = ?", outfitID).Error; err != nil {
		return 0, err
	}
	return outfit.UsageCount, nil
}

// Rankings returns the owner's top-N most and least used outfits. Ties break
// by outfit id so the ordering is deterministic.
func (s *UsageService) Rankings(ctx context.Context, ownerID uuid.UUID) (*UsageRankings, error) {
	var most []models.Outfit
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("usage_count DESC, id ASC").
		Limit(s.RankingsSize).
		Find(&most).Error
	if err != nil {
		return nil, err
	}

	var least []models.Outfit
	err = s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("usage_count ASC, id ASC").
		Limit(s.RankingsSize).
		Find(&least).Error
	if err != nil {
		return nil, err
	}

	return &UsageRankings{MostUsed: most, LeastUsed: least}, nil
}
