// Package usda provides a client for the USDA FoodData Central search API.
package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the FoodData Central API.
	DefaultBaseURL = "https://api.nal.usda.gov"

	// ProviderName identifies this provider.
	ProviderName = "usda"

	// DefaultPageSize is the number of candidates requested per search.
	DefaultPageSize = 10
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the USDA client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// HTTPClient defaults to a resilient client registered in Registry.
	HTTPClient HTTPDoer
	Registry   *resilience.Registry
	Recorder   resilience.Recorder

	PageSize int
}

// Client searches FoodData Central.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	pageSize   int
}

// NewClient creates a new USDA client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Timeout = 6 * time.Second
		rc.Registry = cfg.Registry
		rc.Recorder = cfg.Recorder
		httpClient = resilience.NewClient(rc)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		pageSize:   pageSize,
	}
}

type searchRequest struct {
	Query    string `json:"query"`
	PageSize int    `json:"pageSize"`
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientNumber string  `json:"nutrientNumber"`
	NutrientName   string  `json:"nutrientName"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// Search implements food.Lookup.
func (c *Client) Search(ctx context.Context, query string) ([]*food.Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("usda: missing API key")
	}

	payload, err := json.Marshal(searchRequest{Query: query, PageSize: c.pageSize})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]*food.Food, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		out = append(out, toFood(f))
	}
	return out, nil
}

func toFood(f usdaFood) *food.Food {
	var n food.Nutrients
	for _, nut := range f.FoodNutrients {
		switch nut.NutrientNumber {
		case "208", "2047", "1008":
			// Energy is reported in both kcal and kJ; keep kcal only.
			if nut.UnitName == "" || strings.EqualFold(nut.UnitName, "kcal") {
				n.Calories = nut.Value
			}
		case "203", "1003":
			n.Protein = nut.Value
		case "205", "1005":
			n.Carbs = nut.Value
		case "204", "1004":
			n.Fats = nut.Value
		}
	}

	name := food.NormalizeName(f.Description)
	return &food.Food{
		ID:       fmt.Sprintf("usda_%d", f.FDCID),
		Name:     name,
		Category: Categorize(name),
		Per100:   n,
		UnitType: food.UnitTypeGram,
		BaseUnit: food.BaseUnitGram,
		Tags:     food.DefaultTags(),
		External: true,
	}
}

// categoryKeywords is checked in order; the first matching word wins.
var categoryKeywords = []struct {
	category food.Category
	words    []string
}{
	{food.CategoryMillets, []string{"millet", "ragi", "jowar", "bajra", "sorghum"}},
	{food.CategoryOilsFats, []string{"oil", "butter", "ghee", "lard", "margarine"}},
	{food.CategoryEggs, []string{"egg"}},
	{food.CategoryDairy, []string{"milk", "cheese", "yogurt", "curd", "paneer", "cream"}},
	{food.CategoryMeat, []string{"chicken", "beef", "pork", "mutton", "lamb", "fish", "turkey", "shrimp"}},
	{food.CategoryNutsSeeds, []string{"almond", "peanut", "cashew", "walnut", "seed", "nut"}},
	{food.CategoryLegumes, []string{"bean", "lentil", "chickpea", "pea", "dal", "soy", "tofu"}},
	{food.CategoryGrains, []string{"rice", "wheat", "oat", "bread", "pasta", "barley", "corn", "flour"}},
	{food.CategoryFruits, []string{"apple", "banana", "mango", "orange", "grape", "berry", "berries", "fruit", "melon"}},
	{food.CategoryVegetables, []string{"spinach", "carrot", "potato", "tomato", "onion", "broccoli", "cabbage", "vegetable"}},
}

// Categorize maps a food description to a catalog category by keyword.
// Keywords match whole words, allowing a plural "s" or "es" suffix.
func Categorize(description string) food.Category {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, entry := range categoryKeywords {
		for _, kw := range entry.words {
			for _, w := range words {
				if w == kw || w == kw+"s" || w == kw+"es" {
					return entry.category
				}
			}
		}
	}
	return food.CategoryProcessed
}

var _ food.Lookup = (*Client)(nil)
