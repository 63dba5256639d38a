package database

import (
	"context"
	"time"
)

// Repository defines the interface for snapshot storage.
type Repository interface {
	// Database lifecycle
	Close() error

	// Users
	UpsertUser(ctx context.Context, identifier string) (*PoolUser, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*PoolUser, error)
	ListUsers(ctx context.Context) ([]*PoolUser, error)
	SetUserStatus(ctx context.Context, id int64, status UserStatus, lastError string) error
	DeleteUser(ctx context.Context, id int64) error

	// Snapshots (time-series)
	InsertSnapshot(ctx context.Context, s *UserSnapshot) error
	GetLatestSnapshot(ctx context.Context, userID int64) (*UserSnapshot, error)
	GetSnapshots(ctx context.Context, userID int64, from, to time.Time) ([]*UserSnapshot, error)
	DeleteOldSnapshots(ctx context.Context, before time.Time) (int64, error)
}

// UserWithLatest contains a user and its most recent snapshot (nil if none).
type UserWithLatest struct {
	User     *PoolUser
	Snapshot *UserSnapshot
}

// GetUserWithLatest retrieves a user by identifier together with its latest snapshot.
func GetUserWithLatest(ctx context.Context, repo Repository, identifier string) (*UserWithLatest, error) {
	u, err := repo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	snap, err := repo.GetLatestSnapshot(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &UserWithLatest{User: u, Snapshot: snap}, nil
}
