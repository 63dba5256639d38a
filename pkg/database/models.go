// Package database provides SQLite storage for pool statistics snapshots.
package database

import "time"

// UserStatus is the outcome of the most recent fetch for a user.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserNotFound UserStatus = "not_found"
	UserError    UserStatus = "error"
)

// PoolUser is a tracked payout address or username.
type PoolUser struct {
	ID         int64      `json:"id"`
	Identifier string     `json:"identifier"`
	Status     UserStatus `json:"status"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"` // nil until the first successful fetch
}

// UserSnapshot is one fetch of a user's statistics.
// Unsigned wire values are stored as int64.
type UserSnapshot struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	FetchedAt     time.Time `json:"fetched_at"`
	Hashrate1m    float64   `json:"hashrate_1m"`
	Hashrate5m    float64   `json:"hashrate_5m"`
	Hashrate1hr   float64   `json:"hashrate_1hr"`
	Hashrate1d    float64   `json:"hashrate_1d"`
	Hashrate7d    float64   `json:"hashrate_7d"`
	LastShare     int64     `json:"last_share"`
	WorkerCount   int64     `json:"worker_count"`
	TotalShares   int64     `json:"total_shares"`
	BestShare     float64   `json:"best_share"`
	BestShareEver int64     `json:"best_share_ever"`
	Authorised    int64     `json:"authorised"`

	Workers []*WorkerSnapshot `json:"workers,omitempty"`
}

// WorkerSnapshot is one worker entry of a UserSnapshot.
type WorkerSnapshot struct {
	ID            int64   `json:"id"`
	SnapshotID    int64   `json:"snapshot_id"`
	Position      int     `json:"position"`
	WorkerName    string  `json:"worker_name"`
	Hashrate1m    float64 `json:"hashrate_1m"`
	Hashrate5m    float64 `json:"hashrate_5m"`
	Hashrate1hr   float64 `json:"hashrate_1hr"`
	Hashrate1d    float64 `json:"hashrate_1d"`
	Hashrate7d    float64 `json:"hashrate_7d"`
	LastShare     int64   `json:"last_share"`
	TotalShares   int64   `json:"total_shares"`
	BestShare     float64 `json:"best_share"`
	BestShareEver int64   `json:"best_share_ever"`
}
