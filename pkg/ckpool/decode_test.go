package ckpool

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerhive/ckpool-stats/pkg/hashrate"
)

const sampleUserStats = `{
	"hashrate1m": "0",
	"hashrate5m": "1K",
	"hashrate1hr": "6.2M",
	"hashrate1d": "7G",
	"hashrate7d": "2T",
	"lastshare": 1747672247,
	"workers": 0,
	"shares": 323295,
	"bestshare": 105654.8966108053,
	"bestever": 105654,
	"authorised": 1740481437,
	"worker": [
		{
			"workername": "bc1qz9vvexjmexe8pr2aueuz6x0v94ulkx2m2sp6lr",
			"hashrate1m": "3P",
			"hashrate5m": "4E",
			"hashrate1hr": "0",
			"hashrate1d": "6.19M",
			"hashrate7d": "340M",
			"lastshare": 1747672247,
			"shares": 139320,
			"bestshare": 49794.22067862848,
			"bestever": 49794
		}
	]
}`

func TestDecodeUserStats(t *testing.T) {
	stats, err := DecodeUserStats([]byte(sampleUserStats))
	require.NoError(t, err)

	assert.Equal(t, 0.0, stats.Hashrate1m)
	assert.Equal(t, 1_000.0, stats.Hashrate5m)
	assert.Equal(t, 6_200_000.0, stats.Hashrate1hr)
	assert.Equal(t, 7_000_000_000.0, stats.Hashrate1d)
	assert.Equal(t, 2_000_000_000_000.0, stats.Hashrate7d)
	assert.Equal(t, uint64(1747672247), stats.LastShareTimestamp)
	assert.Equal(t, uint64(0), stats.WorkerCount)
	assert.Equal(t, uint64(323295), stats.TotalShares)
	assert.Equal(t, 105654.8966108053, stats.BestShare)
	assert.Equal(t, uint64(105654), stats.BestShareEver)
	assert.Equal(t, uint64(1740481437), stats.AuthorisedTimestamp)

	// worker_count is reported as 0 while one worker is listed; no reconciliation
	require.Len(t, stats.Workers, 1)
	w := stats.Workers[0]
	assert.Equal(t, "bc1qz9vvexjmexe8pr2aueuz6x0v94ulkx2m2sp6lr", w.WorkerName)
	assert.Equal(t, 3e15, w.Hashrate1m)
	assert.Equal(t, 4e18, w.Hashrate5m)
	assert.Equal(t, 0.0, w.Hashrate1hr)
	assert.Equal(t, 6_190_000.0, w.Hashrate1d)
	assert.Equal(t, 340_000_000.0, w.Hashrate7d)
	assert.Equal(t, uint64(1747672247), w.LastShareTimestamp)
	assert.Equal(t, uint64(139320), w.TotalShares)
	assert.Equal(t, 49794.22067862848, w.BestShare)
	assert.Equal(t, uint64(49794), w.BestShareEver)

	assert.Equal(t, int64(1747672247), stats.LastShare().Unix())
	assert.Equal(t, int64(1740481437), stats.Authorised().Unix())

	found, ok := stats.Worker("bc1qz9vvexjmexe8pr2aueuz6x0v94ulkx2m2sp6lr")
	require.True(t, ok)
	assert.Equal(t, uint64(139320), found.TotalShares)
	_, ok = stats.Worker("missing")
	assert.False(t, ok)
}

func TestDecodeUserStatsEmptyWorkers(t *testing.T) {
	body := replaceWorkers(t, `[]`)

	stats, err := DecodeUserStats(body)
	require.NoError(t, err)
	assert.NotNil(t, stats.Workers)
	assert.Empty(t, stats.Workers)
}

func TestDecodeUserStatsErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  []byte
		field string
		cause error
	}{
		{
			name: "not JSON",
			body: []byte("<html>Bad Gateway</html>"),
		},
		{
			name: "array document",
			body: []byte(`[]`),
		},
		{
			name:  "missing field",
			body:  withoutField(t, "authorised"),
			field: "authorised",
			cause: ErrMissingField,
		},
		{
			name:  "null field",
			body:  withField(t, "hashrate1d", nil),
			field: "hashrate1d",
			cause: ErrMissingField,
		},
		{
			name:  "workers is not an integer",
			body:  withField(t, "workers", "3"),
			field: "workers",
		},
		{
			name:  "negative shares",
			body:  withField(t, "shares", -1),
			field: "shares",
		},
		{
			name:  "hashrate is a number",
			body:  withField(t, "hashrate5m", 1000),
			field: "hashrate5m",
		},
		{
			name:  "malformed hashrate",
			body:  withField(t, "hashrate1hr", "abc"),
			field: "hashrate1hr",
			cause: hashrate.ErrSyntax,
		},
		{
			name:  "malformed worker hashrate",
			body:  []byte(strings.Replace(sampleUserStats, `"4E"`, `"3Q"`, 1)),
			field: "worker[0].hashrate5m",
			cause: hashrate.ErrSyntax,
		},
		{
			name:  "worker missing name",
			body:  replaceWorkers(t, `[{"hashrate1m":"0","hashrate5m":"0","hashrate1hr":"0","hashrate1d":"0","hashrate7d":"0","lastshare":0,"shares":0,"bestshare":0,"bestever":0}]`),
			field: "worker[0].workername",
			cause: ErrMissingField,
		},
		{
			name:  "worker with empty name",
			body:  replaceWorkers(t, `[{"workername":"","hashrate1m":"0","hashrate5m":"0","hashrate1hr":"0","hashrate1d":"0","hashrate7d":"0","lastshare":0,"shares":0,"bestshare":0,"bestever":0}]`),
			field: "worker[0].workername",
		},
		{
			name:  "worker entry wrong type",
			body:  replaceWorkers(t, `["rig1"]`),
			field: "worker[0]",
		},
		{
			name:  "worker is not an array",
			body:  replaceWorkers(t, `{}`),
			field: "worker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := DecodeUserStats(tt.body)
			require.Error(t, err)
			assert.Nil(t, stats)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, KindDecode, KindOf(err))

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.field, de.Field)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestDecodeErrorCarriesRawText(t *testing.T) {
	_, err := DecodeUserStats(withField(t, "hashrate7d", "12X"))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "hashrate7d", de.Field)
	assert.Equal(t, "12X", de.Raw)
	assert.Contains(t, err.Error(), "hashrate7d")
	assert.Contains(t, err.Error(), "12X")

	var pe *hashrate.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "12X", pe.Text)
}

func TestDecodeRawUserStatsKeepsText(t *testing.T) {
	raw, err := DecodeRawUserStats([]byte(sampleUserStats))
	require.NoError(t, err)

	assert.Equal(t, "6.2M", raw.Hashrate1hr)
	require.Len(t, raw.Worker, 1)
	assert.Equal(t, "6.19M", raw.Worker[0].Hashrate1d)

	out, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, sampleUserStats, string(out))
}

func TestUserStatsJSON(t *testing.T) {
	var doc struct {
		Stats UserStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"stats":`+sampleUserStats+`}`), &doc))
	assert.Equal(t, 6_200_000.0, doc.Stats.Hashrate1hr)

	out, err := json.Marshal(doc.Stats)
	require.NoError(t, err)
	assert.JSONEq(t, sampleUserStats, string(out))

	err = json.Unmarshal([]byte(`{"stats":{"hashrate1m":"bad"}}`), &doc)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestRawWorkerNormalize(t *testing.T) {
	w, err := (&RawWorkerStats{WorkerName: "rig", Hashrate1m: "1.5K"}).Normalize()
	require.NoError(t, err)
	assert.Equal(t, 1_500.0, w.Hashrate1m)

	_, err = (&RawWorkerStats{WorkerName: "rig", Hashrate7d: "x"}).Normalize()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "hashrate7d", de.Field)
}

func sampleDoc(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleUserStats), &doc))
	return doc
}

func marshalDoc(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func withField(t *testing.T, name string, value any) []byte {
	doc := sampleDoc(t)
	doc[name] = value
	return marshalDoc(t, doc)
}

func withoutField(t *testing.T, name string) []byte {
	doc := sampleDoc(t)
	delete(doc, name)
	return marshalDoc(t, doc)
}

func replaceWorkers(t *testing.T, workers string) []byte {
	doc := sampleDoc(t)
	doc["worker"] = json.RawMessage(workers)
	return marshalDoc(t, doc)
}
