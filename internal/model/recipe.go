package model

import "time"

// Meal types accepted for recipes.
var MealTypes = []string{"breakfast", "lunch", "dinner", "snack", "dessert", "drink"}

// ValidMealType reports whether t is one of the accepted meal types.
func ValidMealType(t string) bool {
	for _, m := range MealTypes {
		if m == t {
			return true
		}
	}
	return false
}

// Recipe represents a recipe with its ingredients and, when joined,
// the owner's display name and avatar.
type Recipe struct {
	ID              string    `json:"id"`
	OwnerID         int64     `json:"owner_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Ingredients     []string  `json:"ingredients"`
	MealType        string    `json:"meal_type"`
	PreparationTime int       `json:"preparation_time"`
	CookingTime     int       `json:"cooking_time"`
	Servings        int       `json:"servings"`
	Instructions    []string  `json:"instructions"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	OwnerName       string    `json:"owner_name,omitempty"`
	OwnerAvatar     string    `json:"owner_avatar,omitempty"`
}

// RecipeInput represents a create or update request body for a recipe.
type RecipeInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Ingredients     []string `json:"ingredients"`
	MealType        string   `json:"meal_type"`
	PreparationTime int      `json:"preparation_time"`
	CookingTime     int      `json:"cooking_time"`
	Servings        int      `json:"servings"`
	Instructions    []string `json:"instructions"`
	ImageURL        string   `json:"image_url,omitempty"`
}

// RecipeSearchParams represents the filters and pagination of a recipe search.
type RecipeSearchParams struct {
	Ingredients string
	MealType    string
	Page        int
	Limit       int
}

// RecipeSearchResult represents one page of search results.
type RecipeSearchResult struct {
	Recipes []Recipe `json:"recipes"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}
