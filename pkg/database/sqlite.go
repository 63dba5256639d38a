package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository.
// The dbPath can be a file path or ":memory:" for in-memory database.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// migrate runs database migrations.
func (r *SQLiteRepository) migrate() error {
	var currentVersion int
	err := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		// Table doesn't exist, run initial schema
		if _, err := r.db.Exec(Schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		_, err = r.db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	for v := currentVersion + 1; v <= SchemaVersion; v++ {
		migration, ok := Migrations[v]
		if !ok {
			continue
		}
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", v, err)
		}
		if _, err := r.db.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", v, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for advanced queries.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

// =============================================================================
// Users
// =============================================================================

const userColumns = `id, identifier, status, last_error, created_at, updated_at, last_seen_at`

func scanUser(row interface{ Scan(...any) error }) (*PoolUser, error) {
	u := &PoolUser{}
	var lastError sql.NullString
	var lastSeen sql.NullTime
	if err := row.Scan(&u.ID, &u.Identifier, &u.Status, &lastError,
		&u.CreatedAt, &u.UpdatedAt, &lastSeen); err != nil {
		return nil, err
	}
	u.LastError = lastError.String
	if lastSeen.Valid {
		t := lastSeen.Time
		u.LastSeenAt = &t
	}
	return u, nil
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, identifier string) (*PoolUser, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pool_users (identifier, status, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET updated_at = excluded.updated_at`,
		identifier, UserActive, now, now)
	if err != nil {
		return nil, err
	}
	return r.GetUserByIdentifier(ctx, identifier)
}

func (r *SQLiteRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*PoolUser, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM pool_users WHERE identifier = ?`, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]*PoolUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM pool_users ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*PoolUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetUserStatus records a fetch outcome. An active status also updates last_seen_at
// and clears the last error.
func (r *SQLiteRepository) SetUserStatus(ctx context.Context, id int64, status UserStatus, lastError string) error {
	now := time.Now().UTC()
	var err error
	if status == UserActive {
		_, err = r.db.ExecContext(ctx, `
			UPDATE pool_users SET status = ?, last_error = NULL, updated_at = ?, last_seen_at = ?
			WHERE id = ?`, status, now, now, id)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE pool_users SET status = ?, last_error = ?, updated_at = ?
			WHERE id = ?`, status, lastError, now, id)
	}
	return err
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pool_users WHERE id = ?", id)
	return err
}

// =============================================================================
// Snapshots
// =============================================================================

// InsertSnapshot stores a snapshot and its workers in one transaction.
func (r *SQLiteRepository) InsertSnapshot(ctx context.Context, s *UserSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO user_snapshots (user_id, fetched_at, hashrate_1m, hashrate_5m, hashrate_1hr,
			hashrate_1d, hashrate_7d, last_share, worker_count, total_shares, best_share,
			best_share_ever, authorised)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.FetchedAt.UTC(), s.Hashrate1m, s.Hashrate5m, s.Hashrate1hr,
		s.Hashrate1d, s.Hashrate7d, s.LastShare, s.WorkerCount, s.TotalShares, s.BestShare,
		s.BestShareEver, s.Authorised)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	s.ID, _ = result.LastInsertId()

	if len(s.Workers) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO worker_snapshots (snapshot_id, position, worker_name, hashrate_1m,
				hashrate_5m, hashrate_1hr, hashrate_1d, hashrate_7d, last_share, total_shares,
				best_share, best_share_ever)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, w := range s.Workers {
			w.SnapshotID = s.ID
			result, err := stmt.ExecContext(ctx,
				w.SnapshotID, w.Position, w.WorkerName, w.Hashrate1m,
				w.Hashrate5m, w.Hashrate1hr, w.Hashrate1d, w.Hashrate7d, w.LastShare, w.TotalShares,
				w.BestShare, w.BestShareEver)
			if err != nil {
				return fmt.Errorf("failed to insert worker %q: %w", w.WorkerName, err)
			}
			w.ID, _ = result.LastInsertId()
		}
	}

	return tx.Commit()
}

const snapshotColumns = `id, user_id, fetched_at, hashrate_1m, hashrate_5m, hashrate_1hr,
	hashrate_1d, hashrate_7d, last_share, worker_count, total_shares, best_share,
	best_share_ever, authorised`

func scanSnapshot(row interface{ Scan(...any) error }) (*UserSnapshot, error) {
	s := &UserSnapshot{}
	err := row.Scan(&s.ID, &s.UserID, &s.FetchedAt, &s.Hashrate1m, &s.Hashrate5m, &s.Hashrate1hr,
		&s.Hashrate1d, &s.Hashrate7d, &s.LastShare, &s.WorkerCount, &s.TotalShares, &s.BestShare,
		&s.BestShareEver, &s.Authorised)
	return s, err
}

// GetLatestSnapshot returns the newest snapshot with its workers, or nil.
func (r *SQLiteRepository) GetLatestSnapshot(ctx context.Context, userID int64) (*UserSnapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM user_snapshots
		WHERE user_id = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Workers, err = r.getWorkerSnapshots(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepository) getWorkerSnapshots(ctx context.Context, snapshotID int64) ([]*WorkerSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, snapshot_id, position, worker_name, hashrate_1m, hashrate_5m, hashrate_1hr,
			hashrate_1d, hashrate_7d, last_share, total_shares, best_share, best_share_ever
		FROM worker_snapshots WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := []*WorkerSnapshot{}
	for rows.Next() {
		w := &WorkerSnapshot{}
		if err := rows.Scan(&w.ID, &w.SnapshotID, &w.Position, &w.WorkerName, &w.Hashrate1m,
			&w.Hashrate5m, &w.Hashrate1hr, &w.Hashrate1d, &w.Hashrate7d, &w.LastShare,
			&w.TotalShares, &w.BestShare, &w.BestShareEver); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// GetSnapshots returns snapshots in [from, to] in chronological order, without workers.
func (r *SQLiteRepository) GetSnapshots(ctx context.Context, userID int64, from, to time.Time) ([]*UserSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM user_snapshots
		WHERE user_id = ? AND fetched_at >= ? AND fetched_at <= ?
		ORDER BY fetched_at ASC, id ASC`, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*UserSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// DeleteOldSnapshots removes snapshots (and their workers) fetched before the cutoff.
func (r *SQLiteRepository) DeleteOldSnapshots(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_snapshots WHERE fetched_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)
