package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	inviteCodeLength   = 8
	inviteCodeAttempts = 5
)

// GroupService owns group entities, membership, and invite-code redemption.
type GroupService struct {
	DB *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{DB: db}
}

type GroupSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	CreatorID    uuid.UUID `json:"creatorID"`
	CreatorName  string    `json:"creatorName"`
	MembersCount int64     `json:"membersCount"`
	InviteCode   string    `json:"inviteCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

type GroupMember struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type SharedOutfitView struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Season        string          `json:"season"`
	Color         string          `json:"color"`
	ImageURL      string          `json:"imageURL,omitempty"`
	SharedBy      GroupMember     `json:"sharedBy"`
	SharedAt      time.Time       `json:"sharedAt"`
	AverageRating *float64        `json:"averageRating,omitempty"`
	RatingsCount  int64           `json:"ratingsCount"`
	ViewerRating  *int            `json:"userRating,omitempty"`
	imagePath     *string
}

// ImagePath exposes the stored object path so the handler layer can attach
// a presigned URL before responding.
func (v *SharedOutfitView) ImagePath() *string {
	return v.imagePath
}

func (v *SharedOutfitView) SetImageURL(url string) {
	v.ImageURL = url
}

type GroupDetail struct {
	GroupSummary
	Members       []GroupMember      `json:"members"`
	SharedOutfits []SharedOutfitView `json:"sharedOutfits"`
}

// Create makes a new group with a unique invite code and the creator as its
// first member, both inside one transaction.
func (s *GroupService) Create(ctx context.Context, name string, description *string, creatorID uuid.UUID) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, InvalidInput("name is required", FieldError{Field: "name", Message: "must not be empty"})
	}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		if trimmed == "" {
			description = nil
		} else {
			description = &trimmed
		}
	}

	var group models.Group
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for attempt := 0; ; attempt++ {
			code, err := generateInviteCode()
			if err != nil {
				return err
			}
			group = models.Group{
				Name:        name,
				Description: description,
				CreatorID:   creatorID,
				InviteCode:  code,
			}
			err = tx.Create(&group).Error
			if err == nil {
				break
			}
			if !isUniqueViolation(err) || attempt+1 >= inviteCodeAttempts {
				return err
			}
		}

		membership := models.GroupMembership{
			GroupID: group.ID,
			UserID:  creatorID,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Join redeems an invite code. Joining a group the user already belongs to
// is a no-op success: the insert-or-ignore on the membership unique index
// closes the double-submit race without a check-then-insert window.
func (s *GroupService) Join(ctx context.Context, inviteCode string, userID uuid.UUID) (*models.Group, error) {
	inviteCode = strings.TrimSpace(inviteCode)
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "invite_code = ?", inviteCode).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("invalid invite code")
		}
		return nil, err
	}

	membership := models.GroupMembership{
		GroupID: group.ID,
		UserID:  userID,
	}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&membership).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// IsMember reports current membership of the user in the group.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForUser returns summaries of every group the user belongs to, newest
// first. Invite codes are included because the caller is a member of each.
func (s *GroupService) ListForUser(ctx context.Context, userID uuid.UUID) ([]GroupSummary, error) {
	var groups []models.Group
	err := s.DB.WithContext(ctx).
		Model(&models.Group{}).
		Preload("Creator").
		Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
		Where("group_memberships.user_id = ?", userID).
		Order("groups.created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for i := range groups {
		summary, err := s.summarize(ctx, &groups[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Details returns the full member list and every shared outfit with its
// rating aggregate. Only members may see it.
func (s *GroupService) Details(ctx context.Context, groupID, viewerID uuid.UUID, ratings *RatingService) (*GroupDetail, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).Preload("Creator").First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("group not found")
		}
		return nil, err
	}

	member, err := s.IsMember(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("you are not a member of this group")
	}

	summary, err := s.summarize(ctx, &group)
	if err != nil {
		return nil, err
	}

	var memberships []models.GroupMembership
	err = s.DB.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	members := make([]GroupMember, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, GroupMember{ID: m.UserID, Username: m.User.Username})
	}

	var shares []models.GroupShare
	err = s.DB.WithContext(ctx).
		Preload("Outfit").
		Preload("Sharer").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}

	views := make([]SharedOutfitView, 0, len(shares))
	for _, share := range shares {
		aggregate, err := ratings.Aggregate(ctx, groupID, share.OutfitID)
		if err != nil {
			return nil, err
		}
		viewerRating, err := ratings.RatingBy(ctx, groupID, share.OutfitID, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, SharedOutfitView{
			ID:            share.OutfitID,
			Name:          share.Outfit.Name,
			Category:      string(share.Outfit.Category),
			Season:        string(share.Outfit.Season),
			Color:         share.Outfit.Color,
			SharedBy:      GroupMember{ID: share.SharerID, Username: share.Sharer.Username},
			SharedAt:      share.CreatedAt,
			AverageRating: aggregate.Average,
			RatingsCount:  aggregate.Count,
			ViewerRating:  viewerRating,
			imagePath:     share.Outfit.ImagePath,
		})
	}

	return &GroupDetail{
		GroupSummary:  *summary,
		Members:       members,
		SharedOutfits: views,
	}, nil
}

// ShareOutfit records a member exposing their own outfit to the group.
func (s *GroupService) ShareOutfit(ctx context.Context, groupID, outfitID, sharerID uuid.UUID) (*models.GroupShare, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("group not found")
		}
		return nil, err
	}

	member, err := s.IsMember(ctx, groupID, sharerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, Forbidden("you are not a member of this group")
	}

	var outfit models.Outfit
	if err := s.DB.WithContext(ctx).First(&outfit, "id = ?", outfitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("outfit not found")
		}
		return nil, err
	}
	if outfit.OwnerID != sharerID {
		return nil, Forbidden("only the owner can share an outfit")
	}

	share := models.GroupShare{
		GroupID:  groupID,
		OutfitID: outfitID,
		SharerID: sharerID,
	}
	if err := s.DB.WithContext(ctx).Create(&share).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, Conflict("you already shared this outfit to this group")
		}
		return nil, err
	}
	return &share, nil
}

// Summarize builds the summary projection for one group.
func (s *GroupService) Summarize(ctx context.Context, groupID uuid.UUID) (*GroupSummary, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).Preload("Creator").First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("group not found")
		}
		return nil, err
	}
	return s.summarize(ctx, &group)
}

func (s *GroupService) summarize(ctx context.Context, group *models.Group) (*GroupSummary, error) {
	var membersCount int64
	err := s.DB.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ?", group.ID).
		Count(&membersCount).Error
	if err != nil {
		return nil, err
	}

	return &GroupSummary{
		ID:           group.ID,
		Name:         group.Name,
		Description:  group.Description,
		CreatorID:    group.CreatorID,
		CreatorName:  group.Creator.Username,
		MembersCount: membersCount,
		InviteCode:   group.InviteCode,
		CreatedAt:    group.CreatedAt,
	}, nil
}

func generateInviteCode() (string, error) {
	raw := make([]byte, inviteCodeLength/2+1)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	code := strings.ToUpper(hex.EncodeToString(raw))
	if len(code) < inviteCodeLength {
		return "", fmt.Errorf("short invite code")
	}
	return code[:inviteCodeLength], nil
}
