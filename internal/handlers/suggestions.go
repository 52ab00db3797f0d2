package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wardrobe/backend/internal/middleware"
	"github.com/wardrobe/backend/internal/services"
	"github.com/wardrobe/backend/pkg/utils"
)

type SuggestionsHandler struct {
	Suggestions *services.SuggestionService
}

func NewSuggestionsHandler(suggestions *services.SuggestionService) *SuggestionsHandler {
	return &SuggestionsHandler{Suggestions: suggestions}
}

// AI returns styling suggestions for the caller's least-worn outfits.
func (h *SuggestionsHandler) AI(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	result, err := h.Suggestions.StylingSuggestions(c.Context(), currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// Weather returns outfit suggestions ranked for the current weather at the
// caller's coordinates. Both query params are optional; without them the
// service assumes mild conditions.
func (h *SuggestionsHandler) Weather(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	lat := parseCoordinate(c.Query("lat"))
	lon := parseCoordinate(c.Query("lon"))

	result, err := h.Suggestions.WeatherSuggestions(c.Context(), currentUser.ID, lat, lon)
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func parseCoordinate(raw string) *float64 {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}
