package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logsift-systems/logsift/internal/models"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() { r.pool.Close() }

// SaveStatistics upserts a statistics entity by id. Re-running the same
// analysis overwrites the previous result instead of accumulating rows.
func (r *PostgresRepository) SaveStatistics(ctx context.Context, entity *models.StatisticsEntity) error {
	q := `INSERT INTO statistics (id, created, title, data_query, user_key, stats)
          VALUES ($1, $2, $3, $4, $5, $6)
          ON CONFLICT (id) DO UPDATE
          SET created = EXCLUDED.created,
              title = EXCLUDED.title,
              data_query = EXCLUDED.data_query,
              user_key = EXCLUDED.user_key,
              stats = EXCLUDED.stats`

	_, err := r.pool.Exec(ctx, q,
		entity.ID, entity.Created, entity.Title, entity.DataQuery, entity.UserKey, entity.Stats,
	)
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindStatisticsByID(ctx context.Context, id string) (*models.StatisticsEntity, error) {
	q := `SELECT id, created, title, data_query, user_key, stats
          FROM statistics
          WHERE id = $1`

	var entity models.StatisticsEntity
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&entity.ID, &entity.Created, &entity.Title, &entity.DataQuery, &entity.UserKey, &entity.Stats,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find statistics by id: %w", err)
	}
	return &entity, nil
}

// FindStatisticsByDataQueryOrID matches the key against either the entity
// id or the stored data query text, newest first.
func (r *PostgresRepository) FindStatisticsByDataQueryOrID(ctx context.Context, key string) ([]models.StatisticsEntity, error) {
	q := `SELECT id, created, title, data_query, user_key, stats
          FROM statistics
          WHERE id = $1 OR data_query = $1
          ORDER BY created DESC`

	rows, err := r.pool.Query(ctx, q, key)
	if err != nil {
		return nil, fmt.Errorf("find statistics by data query or id: %w", err)
	}
	defer rows.Close()

	return scanStatistics(rows)
}

func (r *PostgresRepository) FindAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]models.StatisticsEntity, error) {
	q := `SELECT id, created, title, data_query, user_key, stats
          FROM statistics
          WHERE user_key = $1 AND created < $2
          ORDER BY created DESC`

	rows, err := r.pool.Query(ctx, q, userKey, before)
	if err != nil {
		return nil, fmt.Errorf("find statistics by user before: %w", err)
	}
	defer rows.Close()

	return scanStatistics(rows)
}

// DeleteAllStatisticsByUserBefore removes the user's statistics older than
// the cutoff and returns the ids of the deleted rows.
func (r *PostgresRepository) DeleteAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]string, error) {
	q := `DELETE FROM statistics
          WHERE user_key = $1 AND created < $2
          RETURNING id`

	rows, err := r.pool.Query(ctx, q, userKey, before)
	if err != nil {
		return nil, fmt.Errorf("delete statistics by user before: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete statistics by user before: %w", err)
	}
	return ids, nil
}

func scanStatistics(rows pgx.Rows) ([]models.StatisticsEntity, error) {
	var out []models.StatisticsEntity
	for rows.Next() {
		var entity models.StatisticsEntity
		if err := rows.Scan(
			&entity.ID, &entity.Created, &entity.Title, &entity.DataQuery, &entity.UserKey, &entity.Stats,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// FindUsersWithTelegramID returns active users that configured a telegram
// chat id, the audience of broadcast notifications.
func (r *PostgresRepository) FindUsersWithTelegramID(ctx context.Context) ([]models.User, error) {
	q := `SELECT username, hash, active, modified, telegram_id, cleaning_interval_days
          FROM users
          WHERE active AND telegram_id IS NOT NULL AND telegram_id <> ''`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find users with telegram id: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindUserByHash(ctx context.Context, hash string) (*models.User, error) {
	q := `SELECT username, hash, active, modified, telegram_id, cleaning_interval_days
          FROM users
          WHERE hash = $1`

	row := r.pool.QueryRow(ctx, q, hash)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by hash: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindAllUsers(ctx context.Context) ([]models.User, error) {
	q := `SELECT username, hash, active, modified, telegram_id, cleaning_interval_days
          FROM users
          ORDER BY username`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find all users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var telegramID *string
	var cleaningDays *int
	if err := row.Scan(
		&user.Username, &user.Hash, &user.Active, &user.Modified, &telegramID, &cleaningDays,
	); err != nil {
		return nil, err
	}
	if telegramID != nil {
		user.Settings.TelegramID = *telegramID
	}
	if cleaningDays != nil {
		user.Settings.CleaningIntervalDays = *cleaningDays
	}
	return &user, nil
}

// InsertUserQuery records an executed search in the user's query history.
func (r *PostgresRepository) InsertUserQuery(ctx context.Context, userKey, queryJSON string, executed time.Time) error {
	q := `INSERT INTO user_queries (user_key, query, executed)
          VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, q, userKey, queryJSON, executed)
	if err != nil {
		return fmt.Errorf("insert user query: %w", err)
	}
	return nil
}
