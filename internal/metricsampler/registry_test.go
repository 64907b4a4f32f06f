package metricsampler

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegistryObserversDoNotPanic(t *testing.T) {
	r := NewRegistry()
	r.ObservePull("F1", "full", 0.1)
	r.ObservePush("F1", "full", 0.2)
	r.ObserveTotal("F1", "full", 0.3)
	r.IncItemsPushed("F1", 3)

	families, err := r.reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestRegistrySettersAreIndependentPerFeed(t *testing.T) {
	r := NewRegistry()
	r.setFeedSearchable("F1", 10)
	r.setFeedSearchable("F2", 20)

	require.Equal(t, float64(10), testutil.ToFloat64(r.feedSearchable.WithLabelValues("F1")))
	require.Equal(t, float64(20), testutil.ToFloat64(r.feedSearchable.WithLabelValues("F2")))
}
