package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingService keeps one rating per (group, outfit, rater) and computes
// aggregates from the live rows on every read. Nothing is cached, so the
// average can never drift from the underlying set.
type RatingService struct {
	DB        *gorm.DB
	Groups    *GroupService
	AllowSelf bool
}

func NewRatingService(db *gorm.DB, groups *GroupService, allowSelf bool) *RatingService {
	return &RatingService{DB: db, Groups: groups, AllowSelf: allowSelf}
}

// RatingAggregate reports the arithmetic mean (one decimal place) and the
// number of distinct raters. Average is nil when nobody has rated yet so an
// unrated outfit is distinguishable from one scored zero-adjacent.
type RatingAggregate struct {
	Average *float64 `json:"average,omitempty"`
	Count   int64    `json:"count"`
}

// Rate upserts the rater's score. A repeat rating from the same rater
// replaces the previous value; ratings from different raters are
// independent rows.
func (s *RatingService) Rate(ctx context.Context, groupID, outfitID, raterID uuid.UUID, value int) (*RatingAggregate, error) {
	if value < 1 || value > 5 {
		return nil, InvalidInput("rating must be between 1 and 5",
			FieldError{Field: "rating", Message: "must be an integer from 1 to 5"})
	}

	member, err := s.Groups.IsMember(ctx, groupID, raterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("you are not a member of this group")
	}

	var shareCount int64
	err = s.DB.WithContext(ctx).
		Model(&models.GroupShare{}).
		Where("group_id = ? AND outfit_id = ?", groupID, outfitID).
		Count(&shareCount).Error
	if err != nil {
		return nil, err
	}
	if shareCount == 0 {
		return nil, NotFound("outfit not found in this group")
	}

	if !s.AllowSelf {
		var outfit models.Outfit
		if err := s.DB.WithContext(ctx).Select("owner_id").First(&outfit, "id = ?", outfitID).Error; err != nil {
			return nil, err
		}
		if outfit.OwnerID == raterID {
			return nil, Forbidden("rating your own outfit is disabled")
		}
	}

	rating := models.Rating{
		GroupID:  groupID,
		OutfitID: outfitID,
		RaterID:  raterID,
		Value:    value,
	}
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}, {Name: "outfit_id"}, {Name: "rater_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      value,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&rating).Error
	if err != nil {
		return nil, err
	}

	return s.Aggregate(ctx, groupID, outfitID)
}

// Aggregate recomputes the average and count for (group, outfit).
func (s *RatingService) Aggregate(ctx context.Context, groupID, outfitID uuid.UUID) (*RatingAggregate, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Rating{}).
		Select("COUNT(*) AS count, AVG(value) AS average").
		Where("group_id = ? AND outfit_id = ?", groupID, outfitID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	aggregate := &RatingAggregate{Count: row.Count}
	if row.Count > 0 && row.Average != nil {
		rounded := math.Round(*row.Average*10) / 10
		aggregate.Average = &rounded
	}
	return aggregate, nil
}

// RatingBy returns the user's current rating for the outfit in the group,
// or nil when they have not rated it.
func (s *RatingService) RatingBy(ctx context.Context, groupID, outfitID, userID uuid.UUID) (*int, error) {
	var rating models.Rating
	err := s.DB.WithContext(ctx).
		First(&rating, "group_id = ? AND outfit_id = ? AND rater_id = ?", groupID, outfitID, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rating.Value, nil
}
