package database

import (
	"time"

	"github.com/powerhive/ckpool-stats/pkg/ckpool"
)

// SnapshotFromStats converts decoded pool statistics to a snapshot row.
func SnapshotFromStats(userID int64, stats *ckpool.UserStats, fetchedAt time.Time) *UserSnapshot {
	s := &UserSnapshot{
		UserID:        userID,
		FetchedAt:     fetchedAt.UTC(),
		Hashrate1m:    stats.Hashrate1m,
		Hashrate5m:    stats.Hashrate5m,
		Hashrate1hr:   stats.Hashrate1hr,
		Hashrate1d:    stats.Hashrate1d,
		Hashrate7d:    stats.Hashrate7d,
		LastShare:     int64(stats.LastShareTimestamp),
		WorkerCount:   int64(stats.WorkerCount),
		TotalShares:   int64(stats.TotalShares),
		BestShare:     stats.BestShare,
		BestShareEver: int64(stats.BestShareEver),
		Authorised:    int64(stats.AuthorisedTimestamp),
		Workers:       make([]*WorkerSnapshot, 0, len(stats.Workers)),
	}

	for i, w := range stats.Workers {
		s.Workers = append(s.Workers, &WorkerSnapshot{
			Position:      i,
			WorkerName:    w.WorkerName,
			Hashrate1m:    w.Hashrate1m,
			Hashrate5m:    w.Hashrate5m,
			Hashrate1hr:   w.Hashrate1hr,
			Hashrate1d:    w.Hashrate1d,
			Hashrate7d:    w.Hashrate7d,
			LastShare:     int64(w.LastShareTimestamp),
			TotalShares:   int64(w.TotalShares),
			BestShare:     w.BestShare,
			BestShareEver: int64(w.BestShareEver),
		})
	}

	return s
}
