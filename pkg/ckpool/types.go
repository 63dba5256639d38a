package ckpool

import (
	"fmt"
	"time"

	"github.com/powerhive/ckpool-stats/pkg/hashrate"
)

// UserStats contains aggregate and per-worker statistics for one account.
// Hashrates are in hashes per second.
type UserStats struct {
	Hashrate1m  float64
	Hashrate5m  float64
	Hashrate1hr float64
	Hashrate1d  float64
	Hashrate7d  float64

	// LastShareTimestamp is seconds since epoch, zero if no share was submitted.
	LastShareTimestamp uint64

	// WorkerCount is reported independently of Workers and may differ from len(Workers).
	WorkerCount uint64

	TotalShares   uint64
	BestShare     float64
	BestShareEver uint64

	// AuthorisedTimestamp is seconds since epoch of account authorization.
	AuthorisedTimestamp uint64

	// Workers are in server order.
	Workers []WorkerStats
}

// WorkerStats contains statistics for a single named worker.
type WorkerStats struct {
	WorkerName string

	Hashrate1m  float64
	Hashrate5m  float64
	Hashrate1hr float64
	Hashrate1d  float64
	Hashrate7d  float64

	LastShareTimestamp uint64
	TotalShares        uint64
	BestShare          float64
	BestShareEver      uint64
}

// LastShare returns the last share time, or the zero time if none.
func (s *UserStats) LastShare() time.Time {
	return unixTime(s.LastShareTimestamp)
}

// Authorised returns the account authorization time.
func (s *UserStats) Authorised() time.Time {
	return unixTime(s.AuthorisedTimestamp)
}

// Worker finds a worker by name.
func (s *UserStats) Worker(name string) (*WorkerStats, bool) {
	for i := range s.Workers {
		if s.Workers[i].WorkerName == name {
			return &s.Workers[i], true
		}
	}
	return nil, false
}

// LastShare returns the last share time, or the zero time if none.
func (w *WorkerStats) LastShare() time.Time {
	return unixTime(w.LastShareTimestamp)
}

func unixTime(sec uint64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0)
}

// RawUserStats mirrors the wire document with hashrates kept as pool text.
// It is the representation to use when re-serializing a response verbatim.
type RawUserStats struct {
	Hashrate1m  string           `json:"hashrate1m"`
	Hashrate5m  string           `json:"hashrate5m"`
	Hashrate1hr string           `json:"hashrate1hr"`
	Hashrate1d  string           `json:"hashrate1d"`
	Hashrate7d  string           `json:"hashrate7d"`
	LastShare   uint64           `json:"lastshare"`
	Workers     uint64           `json:"workers"`
	Shares      uint64           `json:"shares"`
	BestShare   float64          `json:"bestshare"`
	BestEver    uint64           `json:"bestever"`
	Authorised  uint64           `json:"authorised"`
	Worker      []RawWorkerStats `json:"worker"`
}

// RawWorkerStats mirrors one entry of the wire "worker" array.
type RawWorkerStats struct {
	WorkerName  string  `json:"workername"`
	Hashrate1m  string  `json:"hashrate1m"`
	Hashrate5m  string  `json:"hashrate5m"`
	Hashrate1hr string  `json:"hashrate1hr"`
	Hashrate1d  string  `json:"hashrate1d"`
	Hashrate7d  string  `json:"hashrate7d"`
	LastShare   uint64  `json:"lastshare"`
	Shares      uint64  `json:"shares"`
	BestShare   float64 `json:"bestshare"`
	BestEver    uint64  `json:"bestever"`
}

// Normalize decodes every hashrate field, reporting the first failure
// as a field-scoped DecodeError.
func (r *RawUserStats) Normalize() (*UserStats, error) {
	rates, err := decodeRates("", r.Hashrate1m, r.Hashrate5m, r.Hashrate1hr, r.Hashrate1d, r.Hashrate7d)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		Hashrate1m:          rates[0],
		Hashrate5m:          rates[1],
		Hashrate1hr:         rates[2],
		Hashrate1d:          rates[3],
		Hashrate7d:          rates[4],
		LastShareTimestamp:  r.LastShare,
		WorkerCount:         r.Workers,
		TotalShares:         r.Shares,
		BestShare:           r.BestShare,
		BestShareEver:       r.BestEver,
		AuthorisedTimestamp: r.Authorised,
		Workers:             make([]WorkerStats, 0, len(r.Worker)),
	}

	for i := range r.Worker {
		w, err := r.Worker[i].normalize(fmt.Sprintf("worker[%d].", i))
		if err != nil {
			return nil, err
		}
		stats.Workers = append(stats.Workers, *w)
	}

	return stats, nil
}

// Normalize decodes every hashrate field of the worker.
func (r *RawWorkerStats) Normalize() (*WorkerStats, error) {
	return r.normalize("")
}

func (r *RawWorkerStats) normalize(prefix string) (*WorkerStats, error) {
	rates, err := decodeRates(prefix, r.Hashrate1m, r.Hashrate5m, r.Hashrate1hr, r.Hashrate1d, r.Hashrate7d)
	if err != nil {
		return nil, err
	}

	return &WorkerStats{
		WorkerName:         r.WorkerName,
		Hashrate1m:         rates[0],
		Hashrate5m:         rates[1],
		Hashrate1hr:        rates[2],
		Hashrate1d:         rates[3],
		Hashrate7d:         rates[4],
		LastShareTimestamp: r.LastShare,
		TotalShares:        r.Shares,
		BestShare:          r.BestShare,
		BestShareEver:      r.BestEver,
	}, nil
}

var rateFields = [5]string{"hashrate1m", "hashrate5m", "hashrate1hr", "hashrate1d", "hashrate7d"}

func decodeRates(prefix string, texts ...string) ([5]float64, error) {
	var out [5]float64
	for i, text := range texts {
		v, err := hashrate.Decode(text)
		if err != nil {
			return out, &DecodeError{Field: prefix + rateFields[i], Raw: text, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// Raw converts the statistics back to wire form, formatting hashrates
// with three significant digits.
func (s *UserStats) Raw() *RawUserStats {
	raw := &RawUserStats{
		Hashrate1m:  hashrate.Format(s.Hashrate1m),
		Hashrate5m:  hashrate.Format(s.Hashrate5m),
		Hashrate1hr: hashrate.Format(s.Hashrate1hr),
		Hashrate1d:  hashrate.Format(s.Hashrate1d),
		Hashrate7d:  hashrate.Format(s.Hashrate7d),
		LastShare:   s.LastShareTimestamp,
		Workers:     s.WorkerCount,
		Shares:      s.TotalShares,
		BestShare:   s.BestShare,
		BestEver:    s.BestShareEver,
		Authorised:  s.AuthorisedTimestamp,
		Worker:      make([]RawWorkerStats, 0, len(s.Workers)),
	}
	for i := range s.Workers {
		raw.Worker = append(raw.Worker, *s.Workers[i].Raw())
	}
	return raw
}

// Raw converts the worker back to wire form.
func (w *WorkerStats) Raw() *RawWorkerStats {
	return &RawWorkerStats{
		WorkerName:  w.WorkerName,
		Hashrate1m:  hashrate.Format(w.Hashrate1m),
		Hashrate5m:  hashrate.Format(w.Hashrate5m),
		Hashrate1hr: hashrate.Format(w.Hashrate1hr),
		Hashrate1d:  hashrate.Format(w.Hashrate1d),
		Hashrate7d:  hashrate.Format(w.Hashrate7d),
		LastShare:   w.LastShareTimestamp,
		Shares:      w.TotalShares,
		BestShare:   w.BestShare,
		BestEver:    w.BestShareEver,
	}
}
