package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/platebook/platebook-go/internal/model"
)

var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeRepository handles recipe persistence operations.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, params model.RecipeSearchParams) ([]model.Recipe, int, error)
}

// PostgresRecipeRepository is the PostgreSQL-backed RecipeRepository.
type PostgresRecipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a PostgreSQL-backed RecipeRepository.
func NewRecipeRepository(db *sql.DB) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{db: db}
}

// recipeSelect joins ingredients (aggregated to a JSON array) and owner info.
const recipeSelect = `
	SELECT r.id, r.owner_id, r.name, r.description,
		COALESCE(jsonb_agg(DISTINCT ri.ingredient) FILTER (WHERE ri.ingredient IS NOT NULL), '[]') AS ingredients,
		r.meal_type, r.preparation_time, r.cooking_time, r.servings,
		r.instructions, COALESCE(r.image_url, ''), r.created_at, r.updated_at,
		u.name AS owner_name, COALESCE(u.avatar_url, '') AS owner_avatar`

const recipeFrom = `
	FROM recipes r
	LEFT JOIN recipe_ingredients ri ON ri.recipe_id = r.id
	LEFT JOIN users u ON u.id = r.owner_id`

const recipeGroupBy = `
	GROUP BY r.id, u.name, u.avatar_url`

// Create inserts a recipe and its ingredient rows in one transaction.
func (r *PostgresRecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	instructions, err := json.Marshal(recipe.Instructions)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO recipes
		(id, owner_id, name, description, meal_type, preparation_time, cooking_time, servings, instructions, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		recipe.ID, recipe.OwnerID, recipe.Name, recipe.Description, recipe.MealType,
		recipe.PreparationTime, recipe.CookingTime, recipe.Servings, instructions, recipe.ImageURL,
	).Scan(&recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertIngredients(ctx, tx, recipe.ID, recipe.Ingredients); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a recipe with its ingredients and owner info.
func (r *PostgresRecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := recipeSelect + recipeFrom + `
	WHERE r.id = $1` + recipeGroupBy

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRecipeNotFound
	}

	recipe, _, err := scanRecipe(rows, false)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update rewrites the recipe row and replaces its ingredient set in one
// transaction. Concurrent updates resolve last-write-wins.
func (r *PostgresRecipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	instructions, err := json.Marshal(recipe.Instructions)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE recipes SET
		name = $2, description = $3, meal_type = $4, preparation_time = $5,
		cooking_time = $6, servings = $7, instructions = $8,
		image_url = NULLIF($9, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = tx.QueryRowContext(ctx, query,
		recipe.ID, recipe.Name, recipe.Description, recipe.MealType,
		recipe.PreparationTime, recipe.CookingTime, recipe.Servings, instructions, recipe.ImageURL,
	).Scan(&recipe.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecipeNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
		return err
	}
	if err := insertIngredients(ctx, tx, recipe.ID, recipe.Ingredients); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a recipe; ingredient rows cascade.
func (r *PostgresRecipeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// Search returns one page of recipes matching the filters, newest first,
// along with the total match count.
func (r *PostgresRecipeRepository) Search(ctx context.Context, params model.RecipeSearchParams) ([]model.Recipe, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args := buildSearchQuery(params)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recipes []model.Recipe
	total := 0
	for rows.Next() {
		recipe, count, err := scanRecipe(rows, true)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, *recipe)
		total = count
	}
	return recipes, total, rows.Err()
}

// buildSearchQuery assembles the filtered, paginated search statement.
// All values are bound positionally; filter text never reaches the SQL.
func buildSearchQuery(params model.RecipeSearchParams) (string, []any) {
	var args []any
	var conditions []string

	if params.Ingredients != "" {
		args = append(args, "%"+strings.ToLower(params.Ingredients)+"%")
		conditions = append(conditions, `EXISTS (
		SELECT 1 FROM recipe_ingredients
		WHERE recipe_id = r.id AND LOWER(ingredient) LIKE $`+strconv.Itoa(len(args))+`)`)
	}
	if params.MealType != "" {
		args = append(args, params.MealType)
		conditions = append(conditions, `r.meal_type = $`+strconv.Itoa(len(args)))
	}

	query := recipeSelect + `,
		COUNT(*) OVER() AS total_count` + recipeFrom
	if len(conditions) > 0 {
		query += `
	WHERE ` + strings.Join(conditions, " AND ")
	}

	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	query += recipeGroupBy + `
	ORDER BY r.created_at DESC
	LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	return query, args
}

// scanRecipe scans one joined recipe row; withCount additionally reads the
// trailing total_count window column emitted by search queries.
func scanRecipe(rows *sql.Rows, withCount bool) (*model.Recipe, int, error) {
	var (
		recipe       model.Recipe
		ingredients  []byte
		instructions []byte
		total        int
	)

	dest := []any{
		&recipe.ID, &recipe.OwnerID, &recipe.Name, &recipe.Description, &ingredients,
		&recipe.MealType, &recipe.PreparationTime, &recipe.CookingTime, &recipe.Servings,
		&instructions, &recipe.ImageURL, &recipe.CreatedAt, &recipe.UpdatedAt,
		&recipe.OwnerName, &recipe.OwnerAvatar,
	}
	if withCount {
		dest = append(dest, &total)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, 0, err
	}
	if err := json.Unmarshal(ingredients, &recipe.Ingredients); err != nil {
		return nil, 0, err
	}
	if err := json.Unmarshal(instructions, &recipe.Instructions); err != nil {
		return nil, 0, err
	}
	return &recipe, total, nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID string, ingredients []string) error {
	for _, ingredient := range ingredients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient) VALUES ($1, $2)`,
			recipeID, ingredient,
		); err != nil {
			return err
		}
	}
	return nil
}
