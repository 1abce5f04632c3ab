package dailylog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
// Entries live in their own table and are rewritten with the log.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL log repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectLog = `
	SELECT
		log_id, user_id, log_date::text, water_consumed_ml,
		total_calories, total_protein, total_carbs, total_fats,
		suggestions, next_seq, created_at, updated_at
	FROM daily_logs
`

// Get retrieves a log with its entries.
func (r *PostgresRepository) Get(ctx context.Context, userID, date string) (*DailyLog, error) {
	l, err := scanLog(r.pool.QueryRow(ctx, selectLog+` WHERE user_id = $1 AND log_date = $2::date`, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}

	if err := r.loadEntries(ctx, []*DailyLog{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a new log. A concurrent create for the same (user, date)
// surfaces as ErrLogExists.
func (r *PostgresRepository) Create(ctx context.Context, l *DailyLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO daily_logs (
			log_id, user_id, log_date, water_consumed_ml,
			total_calories, total_protein, total_carbs, total_fats,
			suggestions, next_seq, created_at, updated_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, query,
		l.ID, l.UserID, l.Date, l.WaterConsumedMl,
		l.Totals.Calories, l.Totals.Protein, l.Totals.Carbs, l.Totals.Fats,
		suggestionsOrEmpty(l.Suggestions), l.NextSeq, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrLogExists
		}
		return err
	}

	if err := insertEntries(ctx, tx, l); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update replaces a log row and rewrites its entries in one transaction.
func (r *PostgresRepository) Update(ctx context.Context, l *DailyLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		UPDATE daily_logs SET
			water_consumed_ml = $2,
			total_calories = $3,
			total_protein = $4,
			total_carbs = $5,
			total_fats = $6,
			suggestions = $7,
			next_seq = $8,
			updated_at = $9
		WHERE log_id = $1
	`
	result, err := tx.Exec(ctx, query,
		l.ID, l.WaterConsumedMl,
		l.Totals.Calories, l.Totals.Protein, l.Totals.Carbs, l.Totals.Fats,
		suggestionsOrEmpty(l.Suggestions), l.NextSeq, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrLogNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM log_entries WHERE log_id = $1`, l.ID); err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, l); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListRange returns logs in a date range, oldest first.
func (r *PostgresRepository) ListRange(ctx context.Context, userID, from, to string) ([]*DailyLog, error) {
	rows, err := r.pool.Query(ctx,
		selectLog+` WHERE user_id = $1 AND log_date BETWEEN $2::date AND $3::date ORDER BY log_date ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListRecent returns the newest logs first.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*DailyLog, error) {
	rows, err := r.pool.Query(ctx,
		selectLog+` WHERE user_id = $1 ORDER BY log_date DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListUserIDsByDate returns users with a log on date.
func (r *PostgresRepository) ListUserIDsByDate(ctx context.Context, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM daily_logs WHERE log_date = $1::date ORDER BY user_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PurgeUser deletes a user's logs; their entries cascade.
func (r *PostgresRepository) PurgeUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM daily_logs WHERE user_id = $1`, userID)
	return err
}

func (r *PostgresRepository) collect(ctx context.Context, rows pgx.Rows) ([]*DailyLog, error) {
	var logs []*DailyLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		logs = append(logs, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadEntries(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// loadEntries fills the entries of logs with a single query.
func (r *PostgresRepository) loadEntries(ctx context.Context, logs []*DailyLog) error {
	if len(logs) == 0 {
		return nil
	}

	byID := make(map[string]*DailyLog, len(logs))
	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		l.Entries = []Entry{}
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	query := `
		SELECT
			log_id, entry_id, food_id, quantity, unit,
			calories, protein, carbs, fats, logged_at, seq
		FROM log_entries
		WHERE log_id = ANY($1)
		ORDER BY logged_at ASC, seq ASC
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			logID string
			e     Entry
		)
		if err := rows.Scan(
			&logID, &e.ID, &e.FoodID, &e.Quantity, &e.Unit,
			&e.Values.Calories, &e.Values.Protein, &e.Values.Carbs, &e.Values.Fats,
			&e.LoggedAt, &e.Seq,
		); err != nil {
			return err
		}
		if l, ok := byID[logID]; ok {
			l.Entries = append(l.Entries, e)
		}
	}
	return rows.Err()
}

func insertEntries(ctx context.Context, tx pgx.Tx, l *DailyLog) error {
	if len(l.Entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range l.Entries {
		batch.Queue(`
			INSERT INTO log_entries (
				log_id, entry_id, food_id, quantity, unit,
				calories, protein, carbs, fats, logged_at, seq
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			l.ID, e.ID, e.FoodID, e.Quantity, e.Unit,
			e.Values.Calories, e.Values.Protein, e.Values.Carbs, e.Values.Fats,
			e.LoggedAt, e.Seq,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range l.Entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert log entry: %w", err)
		}
	}
	return br.Close()
}

func scanLog(row pgx.Row) (*DailyLog, error) {
	var l DailyLog
	err := row.Scan(
		&l.ID, &l.UserID, &l.Date, &l.WaterConsumedMl,
		&l.Totals.Calories, &l.Totals.Protein, &l.Totals.Carbs, &l.Totals.Fats,
		&l.Suggestions, &l.NextSeq, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func suggestionsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Repository = (*PostgresRepository)(nil)
