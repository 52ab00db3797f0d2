package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/internal/storage"
	"github.com/wardrobe/backend/pkg/logger"
	"github.com/wardrobe/backend/pkg/utils"
)

type SharesHandler struct {
	Tokens  *services.ShareTokenService
	Storage *storage.MinIOClient
	Audit   *services.AuditService
}

func NewSharesHandler(tokens *services.ShareTokenService, storageClient *storage.MinIOClient, audit *services.AuditService) *SharesHandler {
	return &SharesHandler{Tokens: tokens, Storage: storageClient, Audit: audit}
}

// Share mints a fresh token for one of the caller's outfits. Each call
// produces a new link; existing live links stay valid.
func (h *SharesHandler) Share(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	outfitID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	token, err := h.Tokens.Issue(c.Context(), outfitID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "outfit_shared", map[string]interface{}{
		"outfit_id":  outfitID.String(),
		"expires_at": token.ExpiresAt,
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "share.create",
		ResourceType: "outfit",
		ResourceID:   &outfitID,
		Details: map[string]interface{}{
			"expires_at": token.ExpiresAt,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"shareURL":  "/shared-outfit/" + token.Token,
		"expiresAt": token.ExpiresAt,
	})
}

type publicOutfitView struct {
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Season    string    `json:"season"`
	Color     string    `json:"color"`
	ImageURL  string    `json:"imageURL,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResolveShared serves the public projection of a shared outfit. No
// authentication is required; the token is the capability.
func (h *SharesHandler) ResolveShared(c *fiber.Ctx) error {
	outfit, err := h.Tokens.Resolve(c.Context(), c.Params("token"))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, publicOutfitView{
		Name:      outfit.Name,
		Category:  string(outfit.Category),
		Season:    string(outfit.Season),
		Color:     outfit.Color,
		ImageURL:  presignImageURL(c, h.Storage, outfit.ImagePath),
		CreatedAt: outfit.CreatedAt,
	})
}

// AddToWardrobe clones the shared outfit into the caller's own collection.
func (h *SharesHandler) AddToWardrobe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	clone, err := h.Tokens.Redeem(c.Context(), c.Params("token"), currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "shared_outfit_redeemed", map[string]interface{}{
		"outfit_id":   clone.ID.String(),
		"outfit_name": clone.Name,
	})

	clone.ImageURL = presignImageURL(c, h.Storage, clone.ImagePath)
	return utils.Success(c, fiber.StatusCreated, clone)
}
