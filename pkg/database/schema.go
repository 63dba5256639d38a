package database

// Schema contains the SQLite database schema.
// All tables use INTEGER PRIMARY KEY for auto-increment IDs.
const Schema = `
-- Tracked pool accounts (payout address or username)
CREATE TABLE IF NOT EXISTS pool_users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'active', -- 'active', 'not_found', 'error'
    last_error TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_seen_at DATETIME                  -- last successful fetch
);

CREATE INDEX IF NOT EXISTS idx_pool_users_status ON pool_users(status);

-- One row per successful fetch of /users/<identifier>
CREATE TABLE IF NOT EXISTS user_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    fetched_at DATETIME NOT NULL,
    hashrate_1m REAL,            -- H/s
    hashrate_5m REAL,
    hashrate_1hr REAL,
    hashrate_1d REAL,
    hashrate_7d REAL,
    last_share INTEGER,          -- unix seconds, 0 = never
    worker_count INTEGER,        -- as reported, not len(workers)
    total_shares INTEGER,
    best_share REAL,
    best_share_ever INTEGER,
    authorised INTEGER,          -- unix seconds
    FOREIGN KEY (user_id) REFERENCES pool_users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_user_snapshots_user_time ON user_snapshots(user_id, fetched_at);

-- Per-worker rows belonging to a snapshot
CREATE TABLE IF NOT EXISTS worker_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id INTEGER NOT NULL,
    position INTEGER NOT NULL,   -- server order
    worker_name TEXT NOT NULL,
    hashrate_1m REAL,
    hashrate_5m REAL,
    hashrate_1hr REAL,
    hashrate_1d REAL,
    hashrate_7d REAL,
    last_share INTEGER,
    total_shares INTEGER,
    best_share REAL,
    best_share_ever INTEGER,
    FOREIGN KEY (snapshot_id) REFERENCES user_snapshots(id) ON DELETE CASCADE,
    UNIQUE(snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_worker_snapshots_snapshot ON worker_snapshots(snapshot_id);

-- Schema version for migrations
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// Migrations contains SQL migrations indexed by version.
// Each migration upgrades from version N-1 to version N.
var Migrations = map[int]string{
	1: Schema, // Initial schema
}
