package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.PagesFetched.WithLabelValues(ResultOK).Inc()
	m.PagesFetched.WithLabelValues(ResultOK).Inc()
	m.PagesFetched.WithLabelValues(ResultNotFound).Inc()
	m.Checkpoints.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues(ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordsWritten.Add(3)

	path := filepath.Join(t.TempDir(), "ycscrape.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ycscrape_records_written_total 3")
}

func TestRegistryIsPrivate(t *testing.T) {
	m := New()
	m.PagesFetched.WithLabelValues(ResultOK).Inc()
	m.PagesFetched.WithLabelValues(ResultError).Inc()

	n, err := testutil.GatherAndCount(m.Registry(), "ycscrape_detail_pages_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a second instance starts from zero
	n, err = testutil.GatherAndCount(New().Registry(), "ycscrape_detail_pages_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
