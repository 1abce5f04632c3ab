package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/user"
)

// FoodHandler handles catalog endpoints.
type FoodHandler struct {
	foodService *food.Service
	userService *user.Service
	logService  *dailylog.Service
	logger      zerolog.Logger
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(foodService *food.Service, userService *user.Service, logService *dailylog.Service, logger zerolog.Logger) *FoodHandler {
	return &FoodHandler{
		foodService: foodService,
		userService: userService,
		logService:  logService,
		logger:      logger,
	}
}

// Search handles GET /v1/me/foods?q=&category= - catalog search filtered by
// the caller's diet and allergies.
func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	in := food.SearchInput{
		UserID:   userID,
		Text:     r.URL.Query().Get("q"),
		Category: food.Category(r.URL.Query().Get("category")),
	}

	// Without a profile there is nothing to filter by.
	u, err := h.userService.Get(r.Context(), userID)
	switch {
	case err == nil:
		in.Diet = u.Profile.DietType
		in.Allergies = u.Profile.Allergies
	case !errors.Is(err, user.ErrUserNotFound):
		writeServiceError(w, r, h.logger, err)
		return
	}

	foods, err := h.foodService.Search(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toFoodList(foods))
}

// Create handles POST /v1/me/foods - create a private food. Creating a name
// the caller already owns returns the existing food with 200.
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.FoodCreateRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	var tags *food.Tags
	if input.Tags != nil {
		t := food.Tags(*input.Tags)
		tags = &t
	}

	f, created, err := h.foodService.Create(r.Context(), userID, food.CreateInput{
		Name:     input.Name,
		Category: input.Category,
		Per100: food.Nutrients{
			Calories: input.Per100.Calories,
			Protein:  input.Per100.Protein,
			Carbs:    input.Per100.Carbs,
			Fats:     input.Per100.Fats,
		},
		UnitType:  input.UnitType,
		Tags:      tags,
		Allergens: input.Allergens,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if !created {
		response.JSON(w, r, http.StatusOK, toFood(f))
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/me/foods/%s", f.ID), toFood(f))
}

// UpdateCategory handles PATCH /v1/me/foods/{foodId}.
func (h *FoodHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.FoodCategoryRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	f, err := h.foodService.UpdateCategory(r.Context(), userID, chi.URLParam(r, "foodId"), input.Category)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toFood(f))
}

// Recent handles GET /v1/me/foods/recent.
func (h *FoodHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	foods, err := h.logService.RecentFoods(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toFoodList(foods))
}
