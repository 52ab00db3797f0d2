package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/models"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/internal/storage"
	"github.com/wardrobe/backend/pkg/logger"
	"github.com/wardrobe/backend/pkg/utils"
	"gorm.io/gorm"
)

type OutfitsHandler struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
	Usage   *services.UsageService
	Audit   *services.AuditService
}

func NewOutfitsHandler(db *gorm.DB, storageClient *storage.MinIOClient, usage *services.UsageService, audit *services.AuditService) *OutfitsHandler {
	return &OutfitsHandler{DB: db, Storage: storageClient, Usage: usage, Audit: audit}
}

func (h *OutfitsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	p := utils.ParsePagination(c)

	baseQuery := h.DB.Model(&models.Outfit{}).Where("owner_id = ?", currentUser.ID)

	var total int64
	if err := baseQuery.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting outfits")
	}

	var outfits []models.Outfit
	if err := utils.ApplyPagination(baseQuery.Order("created_at DESC"), p).Find(&outfits).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading outfits")
	}

	for i := range outfits {
		outfits[i].ImageURL = presignImageURL(c, h.Storage, outfits[i].ImagePath)
	}

	return utils.Paginated(c, outfits, p.Page, p.Limit, total)
}

type outfitRequest struct {
	Name     string `json:"name" form:"name"`
	Category string `json:"category" form:"category"`
	Season   string `json:"season" form:"season"`
	Color    string `json:"color" form:"color"`
}

func validateOutfitFields(req *outfitRequest) []services.FieldError {
	var fields []services.FieldError
	req.Name = strings.TrimSpace(req.Name)
	req.Color = strings.TrimSpace(req.Color)
	if req.Name == "" {
		fields = append(fields, services.FieldError{Field: "name", Message: "must not be empty"})
	}
	if !models.ValidOutfitCategory(req.Category) {
		fields = append(fields, services.FieldError{Field: "category", Message: "must be one of casual, formal, sport, traditional"})
	}
	if !models.ValidOutfitSeason(req.Season) {
		fields = append(fields, services.FieldError{Field: "season", Message: "must be one of all, spring, summer, fall, winter"})
	}
	if req.Color == "" {
		fields = append(fields, services.FieldError{Field: "color", Message: "must not be empty"})
	}
	return fields
}

func (h *OutfitsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req outfitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if fields := validateOutfitFields(&req); len(fields) > 0 {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "invalid outfit", fields)
	}

	imagePath, status, err := h.storeImage(c, currentUser.ID)
	if err != nil {
		return utils.Error(c, status, err.Error())
	}

	outfit := models.Outfit{
		OwnerID:   currentUser.ID,
		Name:      req.Name,
		Category:  models.OutfitCategory(req.Category),
		Season:    models.OutfitSeason(req.Season),
		Color:     req.Color,
		ImagePath: imagePath,
	}
	if err := h.DB.Create(&outfit).Error; err != nil {
		if imagePath != nil {
			_ = h.Storage.Delete(c.Context(), *imagePath)
		}
		if err == gorm.ErrDuplicatedKey || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return utils.Error(c, fiber.StatusConflict, fmt.Sprintf("an outfit named %q already exists", req.Name))
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating outfit")
	}

	logger.InfoWithUser(currentUser.ID.String(), "outfit_created", map[string]interface{}{
		"outfit_id":   outfit.ID.String(),
		"outfit_name": outfit.Name,
	})

	outfit.ImageURL = presignImageURL(c, h.Storage, outfit.ImagePath)
	return utils.Success(c, fiber.StatusCreated, outfit)
}

func (h *OutfitsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	outfitID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	var outfit models.Outfit
	if err := h.DB.First(&outfit, "id = ?", outfitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "outfit not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading outfit")
	}
	if outfit.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the owner can edit an outfit")
	}

	var req outfitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if fields := validateOutfitFields(&req); len(fields) > 0 {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "invalid outfit", fields)
	}

	updates := map[string]interface{}{
		"name":     req.Name,
		"category": req.Category,
		"season":   req.Season,
		"color":    req.Color,
	}

	newImagePath, status, err := h.storeImage(c, currentUser.ID)
	if err != nil {
		return utils.Error(c, status, err.Error())
	}
	if newImagePath != nil {
		updates["image_path"] = *newImagePath
	}

	if err := h.DB.Model(&models.Outfit{}).Where("id = ?", outfit.ID).Updates(updates).Error; err != nil {
		if newImagePath != nil {
			_ = h.Storage.Delete(c.Context(), *newImagePath)
		}
		if err == gorm.ErrDuplicatedKey || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return utils.Error(c, fiber.StatusConflict, fmt.Sprintf("an outfit named %q already exists", req.Name))
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating outfit")
	}
	if newImagePath != nil && outfit.ImagePath != nil {
		_ = h.Storage.Delete(c.Context(), *outfit.ImagePath)
	}

	var updated models.Outfit
	if err := h.DB.First(&updated, "id = ?", outfit.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated outfit")
	}
	updated.ImageURL = presignImageURL(c, h.Storage, updated.ImagePath)

	return utils.Success(c, fiber.StatusOK, updated)
}

// Delete removes the outfit along with its group-share references and
// ratings. Share tokens are left in place; resolution fails once the
// subject row is gone.
func (h *OutfitsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	outfitID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	var outfit models.Outfit
	if err := h.DB.First(&outfit, "id = ?", outfitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "outfit not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading outfit")
	}
	if outfit.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "only the owner can delete an outfit")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outfit_id = ?", outfit.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("outfit_id = ?", outfit.ID).Delete(&models.GroupShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Outfit{}, "id = ?", outfit.ID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting outfit")
	}

	if outfit.ImagePath != nil && h.Storage != nil {
		_ = h.Storage.Delete(c.Context(), *outfit.ImagePath)
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "outfit.delete",
		ResourceType: "outfit",
		ResourceID:   &outfit.ID,
		Details: map[string]interface{}{
			"outfit_name": outfit.Name,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": fmt.Sprintf("outfit %q deleted", outfit.Name),
	})
}

func (h *OutfitsHandler) MarkUsed(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	outfitID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid outfit id")
	}

	count, err := h.Usage.MarkUsed(c.Context(), outfitID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":    "outfit usage recorded",
		"usageCount": count,
	})
}

func (h *OutfitsHandler) Stats(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	rankings, err := h.Usage.Rankings(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed computing usage rankings")
	}

	for i := range rankings.MostUsed {
		rankings.MostUsed[i].ImageURL = presignImageURL(c, h.Storage, rankings.MostUsed[i].ImagePath)
	}
	for i := range rankings.LeastUsed {
		rankings.LeastUsed[i].ImageURL = presignImageURL(c, h.Storage, rankings.LeastUsed[i].ImagePath)
	}

	return utils.Success(c, fiber.StatusOK, rankings)
}

// storeImage uploads an optional multipart "image" file and returns the
// object path, or nil when no file was attached. On failure it returns the
// HTTP status the caller should respond with.
func (h *OutfitsHandler) storeImage(c *fiber.Ctx, ownerID uuid.UUID) (*string, int, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, 0, nil
	}
	if h.Storage == nil {
		return nil, fiber.StatusServiceUnavailable, fmt.Errorf("image storage is not configured")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.StatusInternalServerError, fmt.Errorf("failed opening uploaded file")
	}
	defer stream.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fiber.StatusBadRequest, fmt.Errorf("only image uploads are allowed")
	}

	objectName := fmt.Sprintf("outfits/%s/%s%s", ownerID.String(), uuid.New().String(), filepath.Ext(fileHeader.Filename))
	if err := h.Storage.Upload(c.Context(), objectName, stream, fileHeader.Size, contentType); err != nil {
		return nil, fiber.StatusInternalServerError, fmt.Errorf("failed uploading image")
	}
	return &objectName, 0, nil
}
