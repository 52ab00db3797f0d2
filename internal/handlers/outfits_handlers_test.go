package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/wardrobe/backend/internal/models"
)

func TestCreateAndListOutfits(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "amina", "super-secret-1")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/", map[string]any{
		"name":     "Summer Dress",
		"category": "casual",
		"season":   "summer",
		"color":    "yellow",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	data := dataMap(t, decodeJSONMap(t, resp))
	if data["name"] != "Summer Dress" {
		t.Fatalf("unexpected outfit: %+v", data)
	}
	if usage, _ := data["usageCount"].(float64); usage != 0 {
		t.Fatalf("expected zero usage on a new outfit, got %v", usage)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/outfits/", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	body := decodeJSONMap(t, resp)
	items, _ := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 outfit, got %d", len(items))
	}
	pagination, _ := body["pagination"].(map[string]any)
	if total, _ := pagination["total"].(float64); total != 1 {
		t.Fatalf("expected total 1, got %v", pagination)
	}
}

func TestCreateOutfitValidation(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "amina", "super-secret-1")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/", map[string]any{
		"name":     "",
		"category": "weird",
		"season":   "monsoon",
		"color":    "",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusBadRequest)
	body := decodeJSONMap(t, resp)
	assertEnvelopeError(t, body, "invalid outfit")
	details, _ := body["details"].([]any)
	if len(details) != 4 {
		t.Fatalf("expected 4 field errors, got %+v", body["details"])
	}
}

func TestCreateOutfitDuplicateNamePerOwner(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	_, otherToken := createTestUser(t, env.db, "sara", "super-secret-2")
	createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/", map[string]any{
		"name":     "Summer Dress",
		"category": "casual",
		"season":   "summer",
		"color":    "yellow",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusConflict)

	// Uniqueness is scoped per owner, not global.
	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/", map[string]any{
		"name":     "Summer Dress",
		"category": "casual",
		"season":   "summer",
		"color":    "red",
	}, authHeaders(otherToken))
	assertStatus(t, resp, http.StatusCreated)
}

func TestUpdateOutfitOwnership(t *testing.T) {
	env := setupTestEnv(t)
	owner, _ := createTestUser(t, env.db, "amina", "super-secret-1")
	_, otherToken := createTestUser(t, env.db, "sara", "super-secret-2")
	outfit := createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	resp := performJSONRequest(t, env.app, http.MethodPut, "/api/outfits/"+outfit.ID.String(), map[string]any{
		"name":     "Stolen Dress",
		"category": "casual",
		"season":   "summer",
		"color":    "yellow",
	}, authHeaders(otherToken))
	assertStatus(t, resp, http.StatusForbidden)
}

func TestMarkUsedIncrements(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	outfit := createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	for i := 1; i <= 3; i++ {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/"+outfit.ID.String()+"/use", nil, authHeaders(token))
		assertStatus(t, resp, http.StatusOK)
		data := dataMap(t, decodeJSONMap(t, resp))
		if count, _ := data["usageCount"].(float64); int(count) != i {
			t.Fatalf("expected usage count %d, got %v", i, count)
		}
	}

	var stored models.Outfit
	if err := env.db.First(&stored, "id = ?", outfit.ID).Error; err != nil {
		t.Fatalf("failed reloading outfit: %v", err)
	}
	if stored.LastUsedAt == nil {
		t.Fatal("expected last_used_at to be set")
	}
}

func TestMarkUsedConcurrent(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	outfit := createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/"+outfit.ID.String()+"/use", nil, authHeaders(token))
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200, got %d", resp.StatusCode)
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	var stored models.Outfit
	if err := env.db.First(&stored, "id = ?", outfit.ID).Error; err != nil {
		t.Fatalf("failed reloading outfit: %v", err)
	}
	if stored.UsageCount != workers {
		t.Fatalf("expected usage count %d, got %d", workers, stored.UsageCount)
	}
}

func TestMarkUsedOwnershipAndMissing(t *testing.T) {
	env := setupTestEnv(t)
	owner, _ := createTestUser(t, env.db, "amina", "super-secret-1")
	_, otherToken := createTestUser(t, env.db, "sara", "super-secret-2")
	outfit := createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/"+outfit.ID.String()+"/use", nil, authHeaders(otherToken))
	assertStatus(t, resp, http.StatusForbidden)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/outfits/00000000-0000-0000-0000-000000000001/use", nil, authHeaders(otherToken))
	assertStatus(t, resp, http.StatusNotFound)
}

func TestUsageStatsRankings(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	for i, usage := range []int64{5, 1, 8, 0, 3} {
		createTestOutfit(t, env.db, owner.ID, fmt.Sprintf("Outfit %d", i), usage)
	}

	resp := performRequest(t, env.app, http.MethodGet, "/api/outfits/stats", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataMap(t, decodeJSONMap(t, resp))

	most, _ := data["mostUsed"].([]any)
	least, _ := data["leastUsed"].([]any)
	if len(most) != 3 || len(least) != 3 {
		t.Fatalf("expected 3 entries per ranking, got %d and %d", len(most), len(least))
	}

	first, _ := most[0].(map[string]any)
	if count, _ := first["usageCount"].(float64); count != 8 {
		t.Fatalf("expected most-used count 8, got %v", count)
	}
	firstLeast, _ := least[0].(map[string]any)
	if count, _ := firstLeast["usageCount"].(float64); count != 0 {
		t.Fatalf("expected least-used count 0, got %v", count)
	}
}

func TestDeleteOutfitCleansGroupState(t *testing.T) {
	env := setupTestEnv(t)
	owner, token := createTestUser(t, env.db, "amina", "super-secret-1")
	outfit := createTestOutfit(t, env.db, owner.ID, "Summer Dress", 0)

	groupData := createGroupViaAPI(t, env, token, "Fashionistas")
	groupID := groupData["id"].(string)
	shareOutfitToGroup(t, env, token, groupID, outfit.ID.String())

	resp := performJSONRequest(t, env.app, http.MethodPost,
		"/api/groups/"+groupID+"/outfits/"+outfit.ID.String()+"/rate",
		map[string]any{"rating": 4}, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	resp = performRequest(t, env.app, http.MethodDelete, "/api/outfits/"+outfit.ID.String(), nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	var shares, ratings int64
	env.db.Model(&models.GroupShare{}).Where("outfit_id = ?", outfit.ID).Count(&shares)
	env.db.Model(&models.Rating{}).Where("outfit_id = ?", outfit.ID).Count(&ratings)
	if shares != 0 || ratings != 0 {
		t.Fatalf("expected group state cleaned up, got %d shares and %d ratings", shares, ratings)
	}
}
