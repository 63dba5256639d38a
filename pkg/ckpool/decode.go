package ckpool

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire documents use pointers so absent and null fields can be told apart
// from zero values.
type wireUser struct {
	Hashrate1m  *string            `json:"hashrate1m"`
	Hashrate5m  *string            `json:"hashrate5m"`
	Hashrate1hr *string            `json:"hashrate1hr"`
	Hashrate1d  *string            `json:"hashrate1d"`
	Hashrate7d  *string            `json:"hashrate7d"`
	LastShare   *uint64            `json:"lastshare"`
	Workers     *uint64            `json:"workers"`
	Shares      *uint64            `json:"shares"`
	BestShare   *float64           `json:"bestshare"`
	BestEver    *uint64            `json:"bestever"`
	Authorised  *uint64            `json:"authorised"`
	Worker      *[]json.RawMessage `json:"worker"`
}

type wireWorker struct {
	WorkerName  *string  `json:"workername"`
	Hashrate1m  *string  `json:"hashrate1m"`
	Hashrate5m  *string  `json:"hashrate5m"`
	Hashrate1hr *string  `json:"hashrate1hr"`
	Hashrate1d  *string  `json:"hashrate1d"`
	Hashrate7d  *string  `json:"hashrate7d"`
	LastShare   *uint64  `json:"lastshare"`
	Shares      *uint64  `json:"shares"`
	BestShare   *float64 `json:"bestshare"`
	BestEver    *uint64  `json:"bestever"`
}

// DecodeUserStats decodes a /users/<id> response body.
func DecodeUserStats(data []byte) (*UserStats, error) {
	raw, err := DecodeRawUserStats(data)
	if err != nil {
		return nil, err
	}
	return raw.Normalize()
}

// DecodeRawUserStats decodes a response body without interpreting hashrates.
// All fields are required.
func DecodeRawUserStats(data []byte) (*RawUserStats, error) {
	var w wireUser
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, jsonError("", err)
	}

	c := fieldCheck{}
	raw := &RawUserStats{
		Hashrate1m:  need(&c, "hashrate1m", w.Hashrate1m),
		Hashrate5m:  need(&c, "hashrate5m", w.Hashrate5m),
		Hashrate1hr: need(&c, "hashrate1hr", w.Hashrate1hr),
		Hashrate1d:  need(&c, "hashrate1d", w.Hashrate1d),
		Hashrate7d:  need(&c, "hashrate7d", w.Hashrate7d),
		LastShare:   need(&c, "lastshare", w.LastShare),
		Workers:     need(&c, "workers", w.Workers),
		Shares:      need(&c, "shares", w.Shares),
		BestShare:   need(&c, "bestshare", w.BestShare),
		BestEver:    need(&c, "bestever", w.BestEver),
		Authorised:  need(&c, "authorised", w.Authorised),
	}
	items := need(&c, "worker", w.Worker)
	if c.err != nil {
		return nil, c.err
	}

	raw.Worker = make([]RawWorkerStats, 0, len(items))
	for i, item := range items {
		rw, err := decodeRawWorker(item, fmt.Sprintf("worker[%d].", i))
		if err != nil {
			return nil, err
		}
		raw.Worker = append(raw.Worker, *rw)
	}

	return raw, nil
}

func decodeRawWorker(data []byte, prefix string) (*RawWorkerStats, error) {
	var w wireWorker
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, jsonError(prefix, err)
	}

	c := fieldCheck{prefix: prefix}
	rw := &RawWorkerStats{
		WorkerName:  need(&c, "workername", w.WorkerName),
		Hashrate1m:  need(&c, "hashrate1m", w.Hashrate1m),
		Hashrate5m:  need(&c, "hashrate5m", w.Hashrate5m),
		Hashrate1hr: need(&c, "hashrate1hr", w.Hashrate1hr),
		Hashrate1d:  need(&c, "hashrate1d", w.Hashrate1d),
		Hashrate7d:  need(&c, "hashrate7d", w.Hashrate7d),
		LastShare:   need(&c, "lastshare", w.LastShare),
		Shares:      need(&c, "shares", w.Shares),
		BestShare:   need(&c, "bestshare", w.BestShare),
		BestEver:    need(&c, "bestever", w.BestEver),
	}
	if c.err != nil {
		return nil, c.err
	}
	if rw.WorkerName == "" {
		return nil, &DecodeError{Field: prefix + "workername", Err: errors.New("empty worker name")}
	}

	return rw, nil
}

// fieldCheck records the first missing field.
type fieldCheck struct {
	prefix string
	err    error
}

func need[T any](c *fieldCheck, name string, p *T) T {
	if p == nil {
		if c.err == nil {
			c.err = &DecodeError{Field: c.prefix + name, Err: ErrMissingField}
		}
		var zero T
		return zero
	}
	return *p
}

func jsonError(prefix string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &DecodeError{Field: prefix + typeErr.Field, Raw: typeErr.Value, Err: err}
	}
	if prefix != "" {
		return &DecodeError{Field: prefix[:len(prefix)-1], Err: err}
	}
	return &DecodeError{Err: err}
}

// UnmarshalJSON decodes the pool's wire format.
func (s *UserStats) UnmarshalJSON(data []byte) error {
	stats, err := DecodeUserStats(data)
	if err != nil {
		return err
	}
	*s = *stats
	return nil
}

// MarshalJSON encodes s in the pool's wire format.
func (s UserStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Raw())
}
