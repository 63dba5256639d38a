package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	ObserveFetch("ok", 10*time.Millisecond)
	SetUser("bc1qregister", 1e12, 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ckpool_fetches_total")
	assert.Contains(t, names, "ckpool_fetch_duration_seconds")
	assert.Contains(t, names, "ckpool_user_hashrate_5m")
	assert.Contains(t, names, "ckpool_user_workers")
}

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchesTotal.WithLabelValues("user_not_found"))
	ObserveFetch("user_not_found", time.Second)
	ObserveFetch("user_not_found", time.Second)
	assert.Equal(t, before+2, testutil.ToFloat64(FetchesTotal.WithLabelValues("user_not_found")))
}

func TestSetAndForgetUser(t *testing.T) {
	SetUser("bc1qgauge", 6.2e6, 2)
	assert.Equal(t, 6.2e6, testutil.ToFloat64(UserHashrate5m.WithLabelValues("bc1qgauge")))
	assert.Equal(t, 2.0, testutil.ToFloat64(UserWorkers.WithLabelValues("bc1qgauge")))

	ForgetUser("bc1qgauge")
	// a fresh child starts at zero
	assert.Zero(t, testutil.ToFloat64(UserHashrate5m.WithLabelValues("bc1qgauge")))
}
