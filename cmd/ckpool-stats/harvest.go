package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/powerhive/ckpool-stats/internal/metrics"
	"github.com/powerhive/ckpool-stats/pkg/ckpool"
	"github.com/powerhive/ckpool-stats/pkg/database"
	"github.com/powerhive/ckpool-stats/pkg/hashrate"
)

// Harvester fetches user statistics from the pool and stores snapshots.
type Harvester struct {
	client ckpool.Client
	repo   database.Repository
	config *Config
	out    io.Writer
	now    func() time.Time
}

// NewHarvester creates a new harvester.
func NewHarvester(client ckpool.Client, repo database.Repository, cfg *Config) *Harvester {
	return &Harvester{
		client: client,
		repo:   repo,
		config: cfg,
		out:    os.Stdout,
		now:    time.Now,
	}
}

// HarvestResult counts the outcomes of one harvest run.
type HarvestResult struct {
	Succeeded int
	NotFound  int
	Failed    int
}

// HarvestUsers fetches and stores statistics for the given users.
// Per-user failures are logged and counted, they do not abort the run.
func (h *Harvester) HarvestUsers(ctx context.Context, identifiers []string) (*HarvestResult, error) {
	log.Printf("Harvesting %d users...", len(identifiers))

	var g errgroup.Group
	g.SetLimit(h.config.Concurrency)

	var mu sync.Mutex
	result := &HarvestResult{}

	for _, id := range identifiers {
		id := id // per-iteration copy (go 1.21 loop-variable semantics)
		g.Go(func() error {
			err := h.harvestOne(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				log.Printf("[%s] OK", id)
				result.Succeeded++
			case ckpool.IsUserNotFound(err):
				log.Printf("[%s] not found on pool", id)
				result.NotFound++
			default:
				log.Printf("[%s] ERROR (%s): %v", id, ckpool.KindOf(err), err)
				result.Failed++
			}
			return nil
		})
	}

	_ = g.Wait()
	log.Printf("Harvest complete: %d succeeded, %d not found, %d failed",
		result.Succeeded, result.NotFound, result.Failed)
	return result, ctx.Err()
}

// harvestOne fetches a single user and records the outcome.
func (h *Harvester) harvestOne(ctx context.Context, identifier string) error {
	user, err := h.repo.UpsertUser(ctx, identifier)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	start := time.Now()
	stats, err := h.client.GetUserStats(ctx, identifier)
	metrics.ObserveFetch(ckpool.KindOf(err).String(), time.Since(start))

	if err != nil {
		status := database.UserError
		if ckpool.IsUserNotFound(err) {
			status = database.UserNotFound
			metrics.ForgetUser(identifier)
		}
		if serr := h.repo.SetUserStatus(ctx, user.ID, status, err.Error()); serr != nil {
			log.Printf("[%s] warning: failed to update status: %v", identifier, serr)
		}
		return err
	}

	snapshot := database.SnapshotFromStats(user.ID, stats, h.now())
	if err := h.repo.InsertSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if err := h.repo.SetUserStatus(ctx, user.ID, database.UserActive, ""); err != nil {
		log.Printf("[%s] warning: failed to update status: %v", identifier, err)
	}
	metrics.SetUser(identifier, stats.Hashrate5m, stats.WorkerCount)

	return nil
}

// RunDaemon runs continuous harvesting.
func (h *Harvester) RunDaemon(ctx context.Context, identifiers []string) error {
	log.Printf("Starting daemon mode (interval: %s)", h.config.HarvestInterval)

	ticker := time.NewTicker(h.config.HarvestInterval)
	defer ticker.Stop()

	// Initial harvest
	if err := h.harvestAll(ctx, identifiers); err != nil {
		log.Printf("Initial harvest error: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Daemon stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := h.harvestAll(ctx, identifiers); err != nil {
				log.Printf("Harvest cycle error: %v", err)
			}
		}
	}
}

// harvestAll harvests the configured users plus every user already in the
// database, then prunes snapshots older than the retention window.
func (h *Harvester) harvestAll(ctx context.Context, identifiers []string) error {
	log.Printf("Starting harvest cycle at %s", h.now().Format(time.RFC3339))

	targets, err := h.targets(ctx, identifiers)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Println("No users to harvest")
		return nil
	}

	if _, err := h.HarvestUsers(ctx, targets); err != nil {
		return err
	}

	if h.config.Retention > 0 {
		cutoff := h.now().Add(-h.config.Retention)
		n, err := h.repo.DeleteOldSnapshots(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		if n > 0 {
			log.Printf("Pruned %d snapshots older than %s", n, cutoff.Format(time.RFC3339))
		}
	}

	return nil
}

// targets merges explicit identifiers with known users, keeping order and
// dropping duplicates.
func (h *Harvester) targets(ctx context.Context, identifiers []string) ([]string, error) {
	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	seen := make(map[string]bool, len(identifiers)+len(users))
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range identifiers {
		add(id)
	}
	for _, u := range users {
		add(u.Identifier)
	}
	return out, nil
}

// ListUsers lists all tracked users from the database.
func (h *Harvester) ListUsers(ctx context.Context) error {
	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(h.out, "No users in database")
		return nil
	}

	fmt.Fprintf(h.out, "%-10s %-44s %-10s %-8s %s\n", "STATUS", "USER", "HASH 5M", "WORKERS", "LAST SEEN")
	fmt.Fprintln(h.out, "------------------------------------------------------------------------------------------")

	for _, u := range users {
		rate, workers := "-", "-"
		snap, err := h.repo.GetLatestSnapshot(ctx, u.ID)
		if err != nil {
			log.Printf("[%s] warning: failed to load snapshot: %v", u.Identifier, err)
		}
		if snap != nil {
			rate = hashrate.Format(snap.Hashrate5m)
			workers = fmt.Sprintf("%d", snap.WorkerCount)
		}

		lastSeen := "never"
		if u.LastSeenAt != nil {
			lastSeen = u.LastSeenAt.Local().Format("2006-01-02 15:04")
		}

		fmt.Fprintf(h.out, "%-10s %-44s %-10s %-8s %s\n",
			u.Status,
			truncate(u.Identifier, 44),
			rate,
			workers,
			lastSeen,
		)
	}

	return nil
}

// ShowUser shows the latest stored snapshot for a user.
func (h *Harvester) ShowUser(ctx context.Context, identifier string) error {
	details, err := database.GetUserWithLatest(ctx, h.repo, identifier)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if details == nil {
		return fmt.Errorf("user not tracked: %s", identifier)
	}

	u := details.User
	fmt.Fprintf(h.out, "=== User: %s ===\n", u.Identifier)
	fmt.Fprintf(h.out, "Status:     %s\n", u.Status)
	if u.LastError != "" {
		fmt.Fprintf(h.out, "Last Error: %s\n", u.LastError)
	}
	if u.LastSeenAt != nil {
		fmt.Fprintf(h.out, "Last Seen:  %s\n", u.LastSeenAt.Format(time.RFC3339))
	}

	s := details.Snapshot
	if s == nil {
		fmt.Fprintln(h.out, "\nNo snapshots stored")
		return nil
	}

	fmt.Fprintf(h.out, "\n=== Snapshot %s ===\n", s.FetchedAt.Format(time.RFC3339))
	fmt.Fprintf(h.out, "Hashrate:   %s (1m) %s (5m) %s (1h) %s (1d) %s (7d)\n",
		hashrate.Format(s.Hashrate1m), hashrate.Format(s.Hashrate5m), hashrate.Format(s.Hashrate1hr),
		hashrate.Format(s.Hashrate1d), hashrate.Format(s.Hashrate7d))
	fmt.Fprintf(h.out, "Workers:    %d\n", s.WorkerCount)
	fmt.Fprintf(h.out, "Shares:     %d\n", s.TotalShares)
	fmt.Fprintf(h.out, "Best Share: %.2f (ever %d)\n", s.BestShare, s.BestShareEver)
	fmt.Fprintf(h.out, "Last Share: %s\n", formatUnix(s.LastShare))

	if len(s.Workers) > 0 {
		fmt.Fprintf(h.out, "\n=== Workers ===\n")
		for _, w := range s.Workers {
			fmt.Fprintf(h.out, "%s: %s (5m), %s (1h), %d shares, last share %s\n",
				w.WorkerName, hashrate.Format(w.Hashrate5m), hashrate.Format(w.Hashrate1hr),
				w.TotalShares, formatUnix(w.LastShare))
		}
	}

	return nil
}

// Helper functions

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "never"
	}
	return formatTime(time.Unix(sec, 0))
}
