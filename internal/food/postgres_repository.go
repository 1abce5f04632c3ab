package food

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL food repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const foodColumns = `
	id, name, category,
	calories, protein, carbs, fats,
	unit_type, base_unit,
	is_veg, is_vegan, is_jain, is_egg,
	allergens, COALESCE(owner_id, ''),
	created_at, updated_at`

// Get retrieves a food by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE id = $1`

	f, err := scanFood(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return f, nil
}

// GetMany retrieves several foods at once. Missing IDs are omitted.
func (r *PostgresRepository) GetMany(ctx context.Context, ids []string) (map[string]*Food, error) {
	out := make(map[string]*Food, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + foodColumns + ` FROM foods WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

// FindByName retrieves a food by owner and normalized name.
func (r *PostgresRepository) FindByName(ctx context.Context, ownerID, name string) (*Food, error) {
	query := `SELECT ` + foodColumns + `
		FROM foods
		WHERE COALESCE(owner_id, '') = $1 AND name = $2`

	f, err := scanFood(r.pool.QueryRow(ctx, query, ownerID, NormalizeName(name)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return f, nil
}

// Search returns matching global and owned foods ordered by name.
func (r *PostgresRepository) Search(ctx context.Context, q Query) ([]*Food, error) {
	query := `SELECT ` + foodColumns + `
		FROM foods
		WHERE (owner_id IS NULL OR owner_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR category = $3)
		ORDER BY name, id`

	args := []any{q.OwnerID, escapeLike(strings.ToLower(strings.TrimSpace(q.Text))), string(q.Category)}
	if q.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Food
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Put creates or replaces a food.
func (r *PostgresRepository) Put(ctx context.Context, f *Food) error {
	query := `
		INSERT INTO foods (
			id, name, category,
			calories, protein, carbs, fats,
			unit_type, base_unit,
			is_veg, is_vegan, is_jain, is_egg,
			allergens, owner_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			calories = EXCLUDED.calories,
			protein = EXCLUDED.protein,
			carbs = EXCLUDED.carbs,
			fats = EXCLUDED.fats,
			unit_type = EXCLUDED.unit_type,
			base_unit = EXCLUDED.base_unit,
			is_veg = EXCLUDED.is_veg,
			is_vegan = EXCLUDED.is_vegan,
			is_jain = EXCLUDED.is_jain,
			is_egg = EXCLUDED.is_egg,
			allergens = EXCLUDED.allergens,
			updated_at = EXCLUDED.updated_at
	`

	allergens := make([]string, 0, len(f.Allergens))
	for _, a := range f.Allergens {
		allergens = append(allergens, string(a))
	}

	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.Name,
		string(f.Category),
		f.Per100.Calories,
		f.Per100.Protein,
		f.Per100.Carbs,
		f.Per100.Fats,
		string(f.UnitType),
		string(f.BaseUnit),
		f.Tags.IsVeg,
		f.Tags.IsVegan,
		f.Tags.IsJain,
		f.Tags.IsEgg,
		allergens,
		f.OwnerID,
		f.CreatedAt,
		f.UpdatedAt,
	)
	return err
}

// PurgeUser deletes a user's private foods. Global foods have no owner and
// are never matched.
func (r *PostgresRepository) PurgeUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM foods WHERE owner_id = $1`, userID)
	return err
}

func scanFood(row pgx.Row) (*Food, error) {
	var (
		f         Food
		category  string
		unitType  string
		baseUnit  string
		allergens []string
	)

	err := row.Scan(
		&f.ID,
		&f.Name,
		&category,
		&f.Per100.Calories,
		&f.Per100.Protein,
		&f.Per100.Carbs,
		&f.Per100.Fats,
		&unitType,
		&baseUnit,
		&f.Tags.IsVeg,
		&f.Tags.IsVegan,
		&f.Tags.IsJain,
		&f.Tags.IsEgg,
		&allergens,
		&f.OwnerID,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.Category = Category(category)
	f.UnitType = UnitType(unitType)
	f.BaseUnit = BaseUnit(baseUnit)
	for _, a := range allergens {
		f.Allergens = append(f.Allergens, Allergen(a))
	}
	return &f, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
