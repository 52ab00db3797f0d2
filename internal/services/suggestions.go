package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/wardrobe/backend/internal/config"
	"github.com/wardrobe/backend/internal/models"
	"github.com/wardrobe/backend/pkg/logger"
	"gorm.io/gorm"
)

const suggestionBatchSize = 4

// SuggestionService is a pass-through to an external styling oracle. It
// sends the caller's least-worn outfits and returns the oracle's picks; on
// any oracle failure it degrades to canned suggestions so the endpoint
// never errors out because a third party is down.
type SuggestionService struct {
	DB         *gorm.DB
	Oracle     config.OracleConfig
	HTTPClient *http.Client
}

func NewSuggestionService(db *gorm.DB, oracle config.OracleConfig) *SuggestionService {
	return &SuggestionService{
		DB:     db,
		Oracle: oracle,
		HTTPClient: &http.Client{
			Timeout: oracle.Timeout,
		},
	}
}

type Suggestion struct {
	OutfitName          string   `json:"outfit_name"`
	StylingTip          string   `json:"styling_tip"`
	Occasion            string   `json:"occasion"`
	ComplementaryItems  []string `json:"complementary_items"`
	RecommendationLevel string   `json:"recommendation_level,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}

type SuggestionResult struct {
	Suggestions []Suggestion `json:"suggestions"`
	Reasoning   string       `json:"reasoning"`
}

// StylingSuggestions asks the oracle for picks from the user's ten
// least-worn outfits.
func (s *SuggestionService) StylingSuggestions(ctx context.Context, userID uuid.UUID) (*SuggestionResult, error) {
	var leastUsed []models.Outfit
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("usage_count ASC, id ASC").
		Limit(10).
		Find(&leastUsed).Error
	if err != nil {
		return nil, err
	}

	if len(leastUsed) == 0 {
		return &SuggestionResult{
			Suggestions: []Suggestion{},
			Reasoning:   "No outfits found in your wardrobe.",
		}, nil
	}

	if s.Oracle.APIKey == "" {
		return fallbackResult(leastUsed, "Styling service is not configured. Showing basic suggestions for your least-worn items."), nil
	}

	suggestions, err := s.askOracle(ctx, buildStylingPrompt(leastUsed), suggestionBatchSize)
	if err != nil {
		logger.Error("suggestion_oracle_failed", err, map[string]interface{}{
			"user_id": userID.String(),
			"outfits": len(leastUsed),
		})
		return fallbackResult(leastUsed, "Styling service is unavailable. Showing basic suggestions for your least-worn items."), nil
	}

	return &SuggestionResult{
		Suggestions: suggestions,
		Reasoning:   "Styling suggestions based on your least-worn outfits.",
	}, nil
}

type oracleRequest struct {
	Model          string          `json:"model"`
	Messages       []oracleMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type oracleMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oracleResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *SuggestionService) askOracle(ctx context.Context, prompt string, limit int) ([]Suggestion, error) {
	payload := oracleRequest{
		Model: s.Oracle.Model,
		Messages: []oracleMessage{
			{Role: "system", Content: "You are a helpful fashion stylist that always replies in valid JSON. Do not include any text before or after the JSON."},
			{Role: "user", Content: prompt},
		},
	}
	payload.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.Oracle.URL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Oracle.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var decoded oracleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	var content struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &content); err != nil {
		return nil, fmt.Errorf("oracle reply was not valid JSON: %w", err)
	}
	if len(content.Suggestions) == 0 {
		return nil, fmt.Errorf("oracle reply contained no suggestions")
	}
	if len(content.Suggestions) > limit {
		content.Suggestions = content.Suggestions[:limit]
	}
	return content.Suggestions, nil
}

func buildStylingPrompt(outfits []models.Outfit) string {
	var sb strings.Builder
	sb.WriteString("Here is a list of a user's least-worn outfits:\n")
	for _, o := range outfits {
		fmt.Fprintf(&sb, "- %s (%s, %s, %s season, used %d times)\n",
			o.Name, o.Category, o.Color, o.Season, o.UsageCount)
	}
	sb.WriteString("\nSelect the 4 best outfits and reply with a JSON object ")
	sb.WriteString(`{"suggestions": [...]} where each entry has "outfit_name", `)
	sb.WriteString(`"styling_tip", "occasion" and "complementary_items" (an array of `)
	sb.WriteString("other outfit names from the list, empty if the outfit is complete on its own).")
	return sb.String()
}

func fallbackResult(outfits []models.Outfit, reasoning string) *SuggestionResult {
	limit := suggestionBatchSize
	if len(outfits) < limit {
		limit = len(outfits)
	}
	suggestions := make([]Suggestion, 0, limit)
	for _, o := range outfits[:limit] {
		suggestions = append(suggestions, Suggestion{
			OutfitName:         o.Name,
			StylingTip:         "Try pairing it with different accessories or layering it.",
			Occasion:           "Daily wear",
			ComplementaryItems: []string{},
		})
	}
	return &SuggestionResult{Suggestions: suggestions, Reasoning: reasoning}
}

// WeatherConditions is the minimal slice of a forecast the stylist cares
// about. Defaults stand in whenever coordinates are missing or the fetch
// fails.
type WeatherConditions struct {
	TemperatureC float64
	Description  string
}

func defaultWeather() WeatherConditions {
	return WeatherConditions{TemperatureC: 20, Description: "clear sky"}
}

const weatherSuggestionLimit = 5

// WeatherSuggestions ranks the caller's whole wardrobe for the current
// weather at the given coordinates. Missing coordinates, a dead forecast
// API, or a failing oracle each degrade a step rather than erroring: default
// conditions, then season-filtered canned picks.
func (s *SuggestionService) WeatherSuggestions(ctx context.Context, userID uuid.UUID, lat, lon *float64) (*SuggestionResult, error) {
	var outfits []models.Outfit
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at ASC").
		Limit(50).
		Find(&outfits).Error
	if err != nil {
		return nil, err
	}

	if len(outfits) == 0 {
		return &SuggestionResult{
			Suggestions: []Suggestion{},
			Reasoning:   "No outfits found in your wardrobe.",
		}, nil
	}

	weather := defaultWeather()
	if lat != nil && lon != nil {
		if fetched, err := s.fetchWeather(ctx, *lat, *lon); err != nil {
			logger.Warn("weather_fetch_failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			weather = fetched
		}
	}

	conditions := fmt.Sprintf("%.0f°C, %s", weather.TemperatureC, weather.Description)

	if s.Oracle.APIKey == "" {
		return weatherFallbackResult(outfits, weather,
			fmt.Sprintf("Weather: %s. Styling service is not configured.", conditions)), nil
	}

	suggestions, err := s.askOracle(ctx, buildWeatherPrompt(outfits, weather), weatherSuggestionLimit)
	if err != nil {
		logger.Error("suggestion_oracle_failed", err, map[string]interface{}{
			"user_id": userID.String(),
			"outfits": len(outfits),
		})
		return weatherFallbackResult(outfits, weather,
			fmt.Sprintf("Weather: %s. Styling service is unavailable.", conditions)), nil
	}

	for i := range suggestions {
		suggestions[i].Reason = fmt.Sprintf("Perfect for %s", conditions)
	}
	return &SuggestionResult{
		Suggestions: suggestions,
		Reasoning:   fmt.Sprintf("Weather: %s", conditions),
	}, nil
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

var weatherCodeDescriptions = map[int]string{
	0: "clear sky", 1: "mainly clear", 2: "partly cloudy", 3: "overcast",
	45: "foggy", 48: "foggy",
	51: "light drizzle", 53: "drizzle", 55: "heavy drizzle",
	61: "light rain", 63: "rain", 65: "heavy rain",
	71: "light snow", 73: "snow", 75: "heavy snow", 77: "snow grains",
	80: "light showers", 81: "showers", 82: "heavy showers",
	85: "light snow showers", 86: "snow showers",
	95: "thunderstorm", 96: "thunderstorm with hail", 99: "heavy thunderstorm",
}

func (s *SuggestionService) fetchWeather(ctx context.Context, lat, lon float64) (WeatherConditions, error) {
	url := fmt.Sprintf("%s?latitude=%f&longitude=%f&current_weather=true",
		strings.TrimRight(s.Oracle.WeatherURL, "/"), lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WeatherConditions{}, err
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return WeatherConditions{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return WeatherConditions{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return WeatherConditions{}, fmt.Errorf("forecast API returned status %d", resp.StatusCode)
	}

	var decoded forecastResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return WeatherConditions{}, err
	}

	description, ok := weatherCodeDescriptions[decoded.CurrentWeather.WeatherCode]
	if !ok {
		description = "clear"
	}
	return WeatherConditions{
		TemperatureC: decoded.CurrentWeather.Temperature,
		Description:  description,
	}, nil
}

func buildWeatherPrompt(outfits []models.Outfit, weather WeatherConditions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a fashion stylist. The current weather is %.0f°C and %s. ",
		weather.TemperatureC, weather.Description)
	sb.WriteString("Here is a list of all outfits in a user's wardrobe:\n")
	for _, o := range outfits {
		fmt.Fprintf(&sb, "- %s (%s, %s, %s season)\n", o.Name, o.Category, o.Color, o.Season)
	}
	sb.WriteString("\nSelect 3 to 5 outfits most appropriate for these conditions, ranked best ")
	sb.WriteString(`first, and reply with a JSON object {"suggestions": [...]} where each entry `)
	sb.WriteString(`has "outfit_name", "styling_tip", "occasion", "recommendation_level" (one of `)
	sb.WriteString(`"mostly recommended", "recommended", "least recommended") and `)
	sb.WriteString(`"complementary_items" (an array of other outfit names from the list, empty `)
	sb.WriteString("if the outfit is complete on its own).")
	return sb.String()
}

// seasonsForTemperature picks the wardrobe seasons worth suggesting when the
// oracle cannot be asked.
func seasonsForTemperature(temp float64) map[models.OutfitSeason]bool {
	switch {
	case temp < 10:
		return map[models.OutfitSeason]bool{models.OutfitSeasonWinter: true, models.OutfitSeasonFall: true, models.OutfitSeasonAll: true}
	case temp < 20:
		return map[models.OutfitSeason]bool{models.OutfitSeasonFall: true, models.OutfitSeasonSpring: true, models.OutfitSeasonAll: true}
	default:
		return map[models.OutfitSeason]bool{models.OutfitSeasonSummer: true, models.OutfitSeasonSpring: true, models.OutfitSeasonAll: true}
	}
}

func weatherFallbackResult(outfits []models.Outfit, weather WeatherConditions, reasoning string) *SuggestionResult {
	seasons := seasonsForTemperature(weather.TemperatureC)
	levels := []string{"mostly recommended", "recommended", "least recommended"}

	suggestions := make([]Suggestion, 0, len(levels))
	for _, o := range outfits {
		if !seasons[o.Season] {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			OutfitName:          o.Name,
			StylingTip:          "A good choice for the current weather.",
			Occasion:            "Daily wear",
			ComplementaryItems:  []string{},
			RecommendationLevel: levels[len(suggestions)],
			Reason:              fmt.Sprintf("Perfect for %.0f°C and %s", weather.TemperatureC, weather.Description),
		})
		if len(suggestions) == len(levels) {
			break
		}
	}
	return &SuggestionResult{Suggestions: suggestions, Reasoning: reasoning}
}
