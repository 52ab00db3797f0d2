package handlers

import (
	"net/http"
	"testing"

	"github.com/wardrobe/backend/internal/models"
)

func TestSuggestionsEmptyWardrobe(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "amina", "super-secret-1")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/suggestions/ai", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, decodeJSONMap(t, resp))
	suggestions, _ := data["suggestions"].([]any)
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions for an empty wardrobe, got %+v", suggestions)
	}
	if data["reasoning"] != "No outfits found in your wardrobe." {
		t.Fatalf("unexpected reasoning: %+v", data)
	}
}

func TestSuggestionsFallbackWithoutOracle(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)
	createTestOutfit(t, env.db, owner.ID, "Winter Coat", 3)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/suggestions/ai", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, decodeJSONMap(t, resp))
	suggestions, _ := data["suggestions"].([]any)
	if len(suggestions) != 2 {
		t.Fatalf("expected one fallback suggestion per outfit, got %d", len(suggestions))
	}
	first, _ := suggestions[0].(map[string]any)
	if first["outfit_name"] != "Summer Dress" {
		t.Fatalf("expected least-worn outfit first, got %+v", first)
	}
}

func TestWeatherSuggestionsEmptyWardrobe(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "amina", "super-secret-1")

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/suggestions/weather", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, decodeJSONMap(t, resp))
	suggestions, _ := data["suggestions"].([]any)
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions for an empty wardrobe, got %+v", suggestions)
	}
	if data["reasoning"] != "No outfits found in your wardrobe." {
		t.Fatalf("unexpected reasoning: %+v", data)
	}
}

// Without coordinates the service assumes mild weather, so the fallback
// should pick warm-season outfits and skip winter ones.
func TestWeatherSuggestionsSeasonalFallback(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")

	outfits := []models.Outfit{
		{OwnerID: owner.ID, Name: "Linen Shirt", Category: models.OutfitCategoryCasual, Season: models.OutfitSeasonSummer, Color: "white"},
		{OwnerID: owner.ID, Name: "Wool Parka", Category: models.OutfitCategoryCasual, Season: models.OutfitSeasonWinter, Color: "gray"},
		{OwnerID: owner.ID, Name: "Denim Jacket", Category: models.OutfitCategoryCasual, Season: models.OutfitSeasonSpring, Color: "blue"},
		{OwnerID: owner.ID, Name: "Black Jeans", Category: models.OutfitCategoryCasual, Season: models.OutfitSeasonAll, Color: "black"},
	}
	for i := range outfits {
		if err := env.db.Create(&outfits[i]).Error; err != nil {
			t.Fatalf("failed creating outfit %q: %v", outfits[i].Name, err)
		}
	}

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/suggestions/weather", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, decodeJSONMap(t, resp))

	suggestions, _ := data["suggestions"].([]any)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 seasonal picks, got %d", len(suggestions))
	}

	levels := []string{"mostly recommended", "recommended", "least recommended"}
	for i, raw := range suggestions {
		suggestion, _ := raw.(map[string]any)
		if suggestion["outfit_name"] == "Wool Parka" {
			t.Fatalf("winter outfit suggested for mild weather: %+v", suggestion)
		}
		if suggestion["recommendation_level"] != levels[i] {
			t.Fatalf("expected level %q at position %d, got %+v", levels[i], i, suggestion)
		}
		if suggestion["reason"] != "Perfect for 20°C and clear sky" {
			t.Fatalf("unexpected reason: %+v", suggestion)
		}
	}

	reasoning, _ := data["reasoning"].(string)
	if reasoning != "Weather: 20°C, clear sky. Styling service is not configured." {
		t.Fatalf("unexpected reasoning: %q", reasoning)
	}
}

func TestWeatherSuggestionsRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	resp := performJSONRequest(t, env.app, http.MethodGet, "/api/suggestions/weather", nil, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
}
