package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// RecipeService handles recipe business logic: validation, ownership
// enforcement and search pagination.
type RecipeService struct {
	recipes repository.RecipeRepository
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(recipes repository.RecipeRepository) *RecipeService {
	return &RecipeService{recipes: recipes}
}

// Create validates and stores a new recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID int64, in model.RecipeInput) (*model.Recipe, error) {
	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	recipe := recipeFromInput(in)
	recipe.ID = uuid.New().String()
	recipe.OwnerID = ownerID

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Get retrieves a recipe by ID. A malformed ID is indistinguishable from
// an absent recipe.
func (s *RecipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrRecipeNotFound
	}
	return s.recipes.GetByID(ctx, id)
}

// Update validates and stores changes to an existing recipe. Only the
// owner or an admin may update it.
func (s *RecipeService) Update(ctx context.Context, userID int64, role, id string, in model.RecipeInput) (*model.Recipe, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != userID && role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := validateRecipeInput(in); err != nil {
		return nil, err
	}

	recipe := recipeFromInput(in)
	recipe.ID = existing.ID
	recipe.OwnerID = existing.OwnerID
	recipe.CreatedAt = existing.CreatedAt

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe. Only the owner or an admin may delete it.
func (s *RecipeService) Delete(ctx context.Context, userID int64, role, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != userID && role != model.RoleAdmin {
		return ErrForbidden
	}
	return s.recipes.Delete(ctx, id)
}

// Search returns one page of recipes matching the filters. Page and limit
// are clamped to sane bounds rather than rejected.
func (s *RecipeService) Search(ctx context.Context, params model.RecipeSearchParams) (*model.RecipeSearchResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultSearchLimit
	}
	if params.Limit > maxSearchLimit {
		params.Limit = maxSearchLimit
	}
	if params.MealType != "" && !model.ValidMealType(params.MealType) {
		return nil, &ValidationError{Fields: map[string]string{"meal_type": "Invalid meal type"}}
	}

	recipes, total, err := s.recipes.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}

	return &model.RecipeSearchResult{
		Recipes: recipes,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
	}, nil
}

func validateRecipeInput(in model.RecipeInput) error {
	fields := fieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		fields.add("name", "Name is required")
	}
	if len(in.Ingredients) == 0 {
		fields.add("ingredients", "At least one ingredient is required")
	}
	for _, ingredient := range in.Ingredients {
		if strings.TrimSpace(ingredient) == "" {
			fields.add("ingredients", "Ingredients cannot be empty")
		}
	}
	if !model.ValidMealType(in.MealType) {
		fields.add("meal_type", "Invalid meal type")
	}
	if in.Servings < 1 {
		fields.add("servings", "Servings must be at least 1")
	}
	if len(in.Instructions) == 0 {
		fields.add("instructions", "At least one instruction is required")
	}
	if in.PreparationTime < 0 {
		fields.add("preparation_time", "Preparation time cannot be negative")
	}
	if in.CookingTime < 0 {
		fields.add("cooking_time", "Cooking time cannot be negative")
	}
	return fields.err()
}

func recipeFromInput(in model.RecipeInput) *model.Recipe {
	return &model.Recipe{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Ingredients:     in.Ingredients,
		MealType:        in.MealType,
		PreparationTime: in.PreparationTime,
		CookingTime:     in.CookingTime,
		Servings:        in.Servings,
		Instructions:    in.Instructions,
		ImageURL:        in.ImageURL,
	}
}
