package food

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api/models"
)

// Lookup is an external food database.
type Lookup interface {
	// Search returns candidate foods with approximate per-100g macros.
	Search(ctx context.Context, query string) ([]*Food, error)
}

// LookupGate decides at request time whether the external lookup may be used.
type LookupGate interface {
	IsExternalLookupDisabled(ctx context.Context) bool
}

// ServiceConfig holds configuration for the food service.
type ServiceConfig struct {
	Repository Repository
	Lookup     Lookup
	Gate       LookupGate
	Logger     zerolog.Logger
}

// Service provides catalog operations.
type Service struct {
	repo   Repository
	lookup Lookup
	gate   LookupGate
	logger zerolog.Logger
}

// NewService creates a new food service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repository,
		lookup: cfg.Lookup,
		gate:   cfg.Gate,
		logger: cfg.Logger,
	}
}

// SearchInput describes a catalog search on behalf of one user.
type SearchInput struct {
	UserID    string
	Text      string
	Category  Category
	Diet      DietType
	Allergies []Allergen
}

// Search returns the user's own foods unfiltered, global foods that suit the
// user's diet and allergies, and, for text queries, external candidates.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]*Food, error) {
	if in.Category != "" && !in.Category.Valid() {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "category", Message: "unknown category", Code: "invalid"},
		}}
	}

	found, err := s.repo.Search(ctx, Query{
		OwnerID:  in.UserID,
		Text:     in.Text,
		Category: in.Category,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*Food, 0, len(found))
	for _, f := range found {
		if f.IsGlobal() && (!f.SuitsDiet(in.Diet) || f.ContainsAny(in.Allergies)) {
			continue
		}
		results = append(results, f)
	}

	if in.Text == "" || s.lookup == nil {
		return results, nil
	}
	if s.gate != nil && s.gate.IsExternalLookupDisabled(ctx) {
		return results, nil
	}

	candidates, err := s.lookup.Search(ctx, in.Text)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", in.Text).Msg("external food lookup failed")
		return results, nil
	}
	for _, c := range candidates {
		if in.Category != "" && c.Category != in.Category {
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

// CreateInput describes a private food.
type CreateInput struct {
	Name      string
	Category  string
	Per100    Nutrients
	UnitType  string
	Tags      *Tags
	Allergens []string
}

// Create stores a private food for ownerID. If the owner already has a food
// with the same normalized name, that food is returned and created is false.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (f *Food, created bool, err error) {
	if fieldErrors := validateCreateInput(in); len(fieldErrors) > 0 {
		return nil, false, &ValidationError{Errors: fieldErrors}
	}

	name := NormalizeName(in.Name)
	existing, err := s.repo.FindByName(ctx, ownerID, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrFoodNotFound) {
		return nil, false, err
	}

	category := Category(in.Category)
	if !category.Valid() {
		category = CategoryOther
	}

	unitType := UnitType(in.UnitType)
	if unitType == "" {
		unitType = UnitTypeGram
	}

	tags := DefaultTags()
	if in.Tags != nil {
		tags = *in.Tags
	}

	allergens := make([]Allergen, 0, len(in.Allergens))
	for _, a := range in.Allergens {
		allergens = append(allergens, Allergen(a))
	}

	now := time.Now()
	f = &Food{
		ID:        NewID(),
		Name:      name,
		Category:  category,
		Per100:    in.Per100,
		UnitType:  unitType,
		BaseUnit:  unitType.BaseUnit(),
		Tags:      tags,
		Allergens: allergens,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Put(ctx, f); err != nil {
		return nil, false, fmt.Errorf("storing food: %w", err)
	}
	return f, true, nil
}

// UpdateCategory recategorizes a global food or one owned by userID.
func (s *Service) UpdateCategory(ctx context.Context, userID, foodID, category string) (*Food, error) {
	c := Category(category)
	if !c.Valid() {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "category", Message: "unknown category", Code: "invalid"},
		}}
	}

	f, err := s.repo.Get(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if !f.VisibleTo(userID) {
		return nil, ErrFoodNotFound
	}

	f.Category = c
	f.UpdatedAt = time.Now()
	if err := s.repo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get retrieves a food visible to userID.
func (s *Service) Get(ctx context.Context, userID, foodID string) (*Food, error) {
	f, err := s.repo.Get(ctx, foodID)
	if err != nil {
		return nil, err
	}
	if !f.VisibleTo(userID) {
		return nil, ErrFoodNotFound
	}
	return f, nil
}

// GetMany retrieves several foods by ID without visibility checks.
func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]*Food, error) {
	return s.repo.GetMany(ctx, ids)
}

// Seed upserts global catalog foods by name and returns how many were written.
func (s *Service) Seed(ctx context.Context, foods []*Food) (int, error) {
	written := 0
	now := time.Now()
	for _, f := range foods {
		f = copyFood(f)
		f.Name = NormalizeName(f.Name)
		f.OwnerID = ""
		if f.BaseUnit == "" {
			f.BaseUnit = f.UnitType.BaseUnit()
		}

		existing, err := s.repo.FindByName(ctx, "", f.Name)
		switch {
		case err == nil:
			f.ID = existing.ID
			f.CreatedAt = existing.CreatedAt
		case errors.Is(err, ErrFoodNotFound):
			f.ID = NewID()
			f.CreatedAt = now
		default:
			return written, err
		}
		f.UpdatedAt = now

		if err := s.repo.Put(ctx, f); err != nil {
			return written, fmt.Errorf("seeding %q: %w", f.Name, err)
		}
		written++
	}
	return written, nil
}

// NewID returns a fresh food identifier.
func NewID() string {
	return "food_" + uuid.New().String()[:22]
}

func validateCreateInput(in CreateInput) []models.FieldError {
	var fieldErrors []models.FieldError

	if NormalizeName(in.Name) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "name", Message: "is required", Code: "required",
		})
	}
	if in.UnitType != "" && !UnitType(in.UnitType).Valid() {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "unitType", Message: "must be one of gram, tbsp, piece, solid, liquid", Code: "invalid",
		})
	}

	nutrients := []struct {
		field string
		value float64
	}{
		{"caloriesPer100", in.Per100.Calories},
		{"proteinPer100", in.Per100.Protein},
		{"carbsPer100", in.Per100.Carbs},
		{"fatsPer100", in.Per100.Fats},
	}
	for _, n := range nutrients {
		if n.value < 0 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: n.field, Message: "must not be negative", Code: "range",
			})
		}
	}

	for _, a := range in.Allergens {
		if !Allergen(a).Valid() {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: "allergens", Message: fmt.Sprintf("unknown allergen %q", a), Code: "invalid",
			})
		}
	}
	return fieldErrors
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
