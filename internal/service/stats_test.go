package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// fakeShowSource serves a fixed page of shows with canned visit
// counts.
type fakeShowSource struct {
	shows  []model.Show
	visits map[uint64]uint32
}

func (f *fakeShowSource) List(_ context.Context, _ repository.ListShowFilter) ([]model.Show, int64, error) {
	return f.shows, int64(len(f.shows)), nil
}

func (f *fakeShowSource) UsedTicketCount(_ context.Context, showID uint64) (uint32, error) {
	return f.visits[showID], nil
}

func u32(v uint32) *uint32 { return &v }

func TestComputeStatsEmptyIsNil(t *testing.T) {
	svc := NewStatsService(&fakeShowSource{})
	stats, err := svc.ComputeStats(context.Background(), StatsFilter{})
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestComputeStatsAggregates(t *testing.T) {
	src := &fakeShowSource{
		shows:  []model.Show{{ID: 1}, {ID: 2}, {ID: 3}},
		visits: map[uint64]uint32{1: 5, 2: 15, 3: 15},
	}
	svc := NewStatsService(src)

	stats, err := svc.ComputeStats(context.Background(), StatsFilter{})
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Len(t, stats.Shows, 3)
	assert.Equal(t, uint64(35), stats.VisitsCount)
	// Show 2 and show 3 tie at 15; the one seen first wins.
	assert.Equal(t, uint64(2), stats.MostPopularShow.Show.ID)
	assert.Equal(t, uint32(15), stats.MostPopularShow.VisitCount)
}

func TestComputeStatsVisitCountBounds(t *testing.T) {
	src := &fakeShowSource{
		shows:  []model.Show{{ID: 1}, {ID: 2}, {ID: 3}},
		visits: map[uint64]uint32{1: 5, 2: 15, 3: 25},
	}
	svc := NewStatsService(src)

	stats, err := svc.ComputeStats(context.Background(), StatsFilter{
		VisitCountMin: u32(10),
		VisitCountMax: u32(20),
	})
	require.NoError(t, err)
	require.NotNil(t, stats)
	require.Len(t, stats.Shows, 1)
	assert.Equal(t, uint64(2), stats.Shows[0].Show.ID)
	assert.Equal(t, uint64(15), stats.VisitsCount)

	// Bounds that exclude everything yield the nil report, not an
	// empty one.
	stats, err = svc.ComputeStats(context.Background(), StatsFilter{VisitCountMin: u32(100)})
	require.NoError(t, err)
	assert.Nil(t, stats)
}
