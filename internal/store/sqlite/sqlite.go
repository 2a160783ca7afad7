package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nocturne-ai/aria/internal/store"
	"github.com/nocturne-ai/aria/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB
// and *sqlx.Tx).
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository.
type SqliteRepository struct {
	db *sqlx.DB
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{db: db}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) Interactions() store.InteractionRepository {
	return &interactionRepo{db: r.db}
}

type interactionRepo struct {
	db DB
}

func (r *interactionRepo) Log(ctx context.Context, in *model.Interaction) error {
	query := `
	INSERT INTO interactions (id, user_id, endpoint, provider, model, success, error, duration_ms, request, response, created_at)
	VALUES (:id, :user_id, :endpoint, :provider, :model, :success, :error, :duration_ms, :request, :response, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, in)
	return err
}

func (r *interactionRepo) GetRecent(ctx context.Context, userID string, limit int) ([]model.Interaction, error) {
	var logs []model.Interaction
	query := `SELECT * FROM interactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &logs, query, userID, limit)
	return logs, err
}

func (r *interactionRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
	SELECT
		date(created_at) AS day,
		COUNT(*) AS requests,
		SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) AS failures,
		CAST(AVG(duration_ms) AS INTEGER) AS avg_ms
	FROM interactions
	WHERE created_at >= datetime('now', ?)
	GROUP BY day
	ORDER BY day DESC`
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}
