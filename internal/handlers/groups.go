package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/internal/storage"
	"github.com/wardrobe/backend/pkg/logger"
	"github.com/wardrobe/backend/pkg/utils"
)

type GroupsHandler struct {
	Groups  *services.GroupService
	Ratings *services.RatingService
	Storage *storage.MinIOClient
	Audit   *services.AuditService
}

func NewGroupsHandler(groups *services.GroupService, ratings *services.RatingService, storageClient *storage.MinIOClient, audit *services.AuditService) *GroupsHandler {
	return &GroupsHandler{Groups: groups, Ratings: ratings, Storage: storageClient, Audit: audit}
}

type createGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", map[string]interface{}{
			"name": "name is required",
		})
	}

	group, err := h.Groups.Create(c.Context(), req.Name, req.Description, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "group.create",
		ResourceType: "group",
		ResourceID:   &group.ID,
		Details:      map[string]interface{}{"name": group.Name},
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	summary, err := h.Groups.Summarize(c.Context(), group.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, summary)
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Groups.ListForUser(c.Context(), currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, groups)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	detail, err := h.Groups.Details(c.Context(), groupID, currentUser.ID, h.Ratings)
	if err != nil {
		return serviceError(c, err)
	}

	for i := range detail.SharedOutfits {
		view := &detail.SharedOutfits[i]
		if url := presignImageURL(c, h.Storage, view.ImagePath()); url != "" {
			view.SetImageURL(url)
		}
	}

	return utils.Success(c, fiber.StatusOK, detail)
}

type joinGroupRequest struct {
	InviteCode string `json:"inviteCode"`
}

// Join redeems an invite code. Joining a group the caller already belongs
// to succeeds without creating a second membership.
func (h *GroupsHandler) Join(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req joinGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.InviteCode = strings.TrimSpace(req.InviteCode)
	if req.InviteCode == "" {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", map[string]interface{}{
			"inviteCode": "invite code is required",
		})
	}

	group, err := h.Groups.Join(c.Context(), req.InviteCode, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_joined", map[string]interface{}{
		"group_id": group.ID.String(),
	})

	summary, err := h.Groups.Summarize(c.Context(), group.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, summary)
}

type shareToGroupRequest struct {
	OutfitID string `json:"outfitID"`
}

func (h *GroupsHandler) ShareOutfit(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req shareToGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	outfitID, err := parseUUID(req.OutfitID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	share, err := h.Groups.ShareOutfit(c.Context(), groupID, outfitID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "group.share_outfit",
		ResourceType: "group",
		ResourceID:   &groupID,
		Details:      map[string]interface{}{"outfit_id": outfitID.String()},
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"message":  "outfit shared to group",
		"sharedAt": share.CreatedAt,
	})
}

type rateOutfitRequest struct {
	Rating int `json:"rating"`
}

func (h *GroupsHandler) Rate(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	outfitID, err := parseUUID(c.Params("outfitId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	var req rateOutfitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	aggregate, err := h.Ratings.Rate(c.Context(), groupID, outfitID, currentUser.ID, req.Rating)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "rating saved",
		"average": aggregate.Average,
		"count":   aggregate.Count,
	})
}
