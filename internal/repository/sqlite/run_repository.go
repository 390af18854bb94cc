package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chinesetutor/internal/logger"
	"github.com/vytor/chinesetutor/internal/models"
	"github.com/vytor/chinesetutor/internal/repository"
)

var runColumns = []string{
	"id", "kind", "deck", "dry_run", "status", "total", "inserted", "duplicates",
	"updated", "audio_updated", "skipped", "errors", "error_message", "started_at", "finished_at",
}

type runRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository implementation
func NewRunRepository(db *sql.DB) repository.RunRepository {
	return &runRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (models.SyncRun, error) {
	var r models.SyncRun
	err := row.Scan(&r.ID, &r.Kind, &r.Deck, &r.DryRun, &r.Status, &r.Total, &r.Inserted, &r.Duplicates,
		&r.Updated, &r.AudioUpdated, &r.Skipped, &r.Errors, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt)
	return r, err
}

func (r *runRepository) Insert(ctx context.Context, run models.SyncRun, items []models.SyncRunItem) error {
	log := logger.FromContext(ctx).WithPrefix("run_repo")
	log.Debug("inserting run: id=%s, kind=%s, deck=%s, items=%d", run.ID, run.Kind, run.Deck, len(items))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Insert("sync_runs").Columns(runColumns...).Values(
			run.ID, run.Kind, run.Deck, run.DryRun, run.Status, run.Total, run.Inserted, run.Duplicates,
			run.Updated, run.AudioUpdated, run.Skipped, run.Errors, run.ErrorMessage, run.StartedAt, run.FinishedAt,
		).ToSql()
		if err != nil {
			log.Error("failed to build insert: %v", err)
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert run: %v", err)
			return err
		}

		if len(items) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO sync_run_items (run_id, position, word, note_id, outcome, state, audio_updated, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			log.Error("failed to prepare item insert: %v", err)
			return err
		}
		defer stmt.Close()

		for _, it := range items {
			if _, err := stmt.ExecContext(ctx, run.ID, it.Position, it.Word, it.NoteID, it.Outcome, it.State, it.AudioUpdated, it.Error); err != nil {
				log.Error("failed to insert item %d (%s): %v", it.Position, it.Word, err)
				return err
			}
		}
		return nil
	})
}

func (r *runRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")
	log.Debug("getting run: id=%s", id)

	query, args, err := sqlBuilder.Select(runColumns...).From("sync_runs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("run not found: id=%s", id)
		} else {
			log.Error("failed to get run: %v", err)
		}
		return nil, err
	}
	return &run, nil
}

func applyRunFilter(query squirrel.SelectBuilder, filter models.RunFilter) squirrel.SelectBuilder {
	if filter.Deck != "" {
		query = query.Where(squirrel.Eq{"deck": filter.Deck})
	}
	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	return query
}

func (r *runRepository) List(ctx context.Context, filter models.RunFilter) ([]models.SyncRun, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")
	log.Debug("listing runs: deck=%s, kind=%s, status=%s", filter.Deck, filter.Kind, filter.Status)

	query := applyRunFilter(sqlBuilder.Select(runColumns...).From("sync_runs"), filter).
		OrderBy("started_at DESC", "id")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list runs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			log.Error("failed to scan run row: %v", err)
			return nil, err
		}
		runs = append(runs, run)
	}
	log.Debug("found %d runs", len(runs))
	return runs, rows.Err()
}

func (r *runRepository) Count(ctx context.Context, filter models.RunFilter) (int, error) {
	sqlStr, args, err := applyRunFilter(sqlBuilder.Select("COUNT(*)").From("sync_runs"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("run_repo").Error("failed to count runs: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *runRepository) Items(ctx context.Context, runID string) ([]models.SyncRunItem, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")

	sqlStr, args, err := sqlBuilder.
		Select("run_id", "position", "word", "note_id", "outcome", "state", "audio_updated", "error").
		From("sync_run_items").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list items: %v", err)
		return nil, err
	}
	defer rows.Close()

	var items []models.SyncRunItem
	for rows.Next() {
		var it models.SyncRunItem
		if err := rows.Scan(&it.RunID, &it.Position, &it.Word, &it.NoteID, &it.Outcome, &it.State, &it.AudioUpdated, &it.Error); err != nil {
			log.Error("failed to scan item row: %v", err)
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *runRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")

	sqlStr, args, err := sqlBuilder.Delete("sync_runs").Where(squirrel.Lt{"started_at": t}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to prune runs: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	log.Info("pruned %d run(s) started before %s", n, t.Format(time.RFC3339))
	return n, nil
}
