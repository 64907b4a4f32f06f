package esgateway

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewIndexNameMatchesLayout(t *testing.T) {
	clock := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	name, err := NewIndexName("F1", clock)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(name, "activities__feed_id_F1__date_2024-03-15__timestamp_"))
	require.True(t, strings.HasSuffix(name, "__"))
	require.Contains(t, name, "__batch_id_")
}

func TestFeedIDMarkerUniquelyIdentifiesOwner(t *testing.T) {
	require.Equal(t, "activities__feed_id_F1__", FeedIDMarker("F1"))
	require.NotEqual(t, FeedIDMarker("F1"), FeedIDMarker("F10"))
}

func TestIndexesMatchingFeedFiltersBySubstring(t *testing.T) {
	names := []string{
		"activities__feed_id_F1__date_x__",
		"activities__feed_id_F2__date_y__",
	}
	require.Equal(t, []string{names[0]}, IndexesMatchingFeed(names, "F1"))
}

func TestIndexesMatchingNoFeedsFindsOrphans(t *testing.T) {
	names := []string{
		"activities__feed_id_F1__date_x__",
		"activities__feed_id_F2__date_y__",
	}
	require.Equal(t, []string{names[1]}, IndexesMatchingNoFeeds(names, []string{"F1"}))
}

func TestIndexesMatchingFeedsUnionsMultipleFeeds(t *testing.T) {
	names := []string{
		"activities__feed_id_F1__a__",
		"activities__feed_id_F2__b__",
		"activities__feed_id_F3__c__",
	}
	got := IndexesMatchingFeeds(names, []string{"F1", "F3"})
	require.ElementsMatch(t, []string{names[0], names[2]}, got)
}
