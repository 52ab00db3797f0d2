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

type AuthHandler struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
}

func NewAuthHandler(db *gorm.DB, storageClient *storage.MinIOClient) *AuthHandler {
	return &AuthHandler{DB: db, Storage: storageClient}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var fields []services.FieldError
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Gender = strings.TrimSpace(req.Gender)
	if req.Username == "" {
		fields = append(fields, services.FieldError{Field: "username", Message: "must not be empty"})
	}
	if req.Email == "" {
		fields = append(fields, services.FieldError{Field: "email", Message: "must not be empty"})
	}
	if len(req.Password) < 8 {
		fields = append(fields, services.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if req.Gender == "" {
		fields = append(fields, services.FieldError{Field: "gender", Message: "must not be empty"})
	}
	if len(fields) > 0 {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "invalid registration", fields)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Gender:       req.Gender,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if err == gorm.ErrDuplicatedKey || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return utils.Error(c, fiber.StatusConflict, "username already exists")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
		"username": user.Username,
	})

	return utils.Success(c, fiber.StatusCreated, tokenResponse{Token: token, Username: user.Username})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	err := h.DB.First(&user, "username = ?", strings.TrimSpace(req.Username)).Error
	if err != nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, tokenResponse{Token: token, Username: user.Username})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	currentUser.ProfilePicURL = presignImageURL(c, h.Storage, currentUser.ProfilePicPath)
	return utils.Success(c, fiber.StatusOK, currentUser)
}

type updateProfileRequest struct {
	Email  *string `json:"email"`
	Gender *string `json:"gender"`
	Phone  *string `json:"phone"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			return utils.Error(c, fiber.StatusBadRequest, "email cannot be empty")
		}
		updates["email"] = email
	}
	if req.Gender != nil {
		gender := strings.TrimSpace(*req.Gender)
		if gender == "" {
			return utils.Error(c, fiber.StatusBadRequest, "gender cannot be empty")
		}
		updates["gender"] = gender
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		if trimmed == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = trimmed
		}
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating profile")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated profile")
	}
	updated.ProfilePicURL = presignImageURL(c, h.Storage, updated.ProfilePicPath)

	return utils.Success(c, fiber.StatusOK, updated)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !utils.CheckPassword(req.CurrentPassword, currentUser.PasswordHash) {
		return utils.Error(c, fiber.StatusUnauthorized, "current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return utils.ErrorWithDetails(c, fiber.StatusBadRequest, "invalid password", []services.FieldError{
			{Field: "newPassword", Message: "must be at least 8 characters"},
		})
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("password_hash", hash).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating password")
	}

	logger.InfoWithUser(currentUser.ID.String(), "password_changed", nil)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password updated"})
}

func (h *AuthHandler) UploadProfilePic(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "image storage is not configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "image is required")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return utils.Error(c, fiber.StatusBadRequest, "only image uploads are allowed")
	}

	objectName := fmt.Sprintf("profile-pics/%s/%s%s", currentUser.ID.String(), uuid.New().String(), filepath.Ext(fileHeader.Filename))
	if err := h.Storage.Upload(c.Context(), objectName, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading image")
	}

	oldPath := currentUser.ProfilePicPath
	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("profile_pic_path", objectName).Error; err != nil {
		_ = h.Storage.Delete(c.Context(), objectName)
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving profile picture")
	}
	if oldPath != nil {
		_ = h.Storage.Delete(c.Context(), *oldPath)
	}

	url := presignImageURL(c, h.Storage, &objectName)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"profilePicURL": url})
}
